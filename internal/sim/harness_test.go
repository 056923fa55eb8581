package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/rules"
	"github.com/l1jgo/skirmish/internal/world"
)

const testContent = `
items:
  - name: copper
  - name: blast
    explosiveness: 1.0
    flammability: 0.4
floors:
  - name: stone
blocks:
  - name: core
    core: true
    solid: true
    health: 1000
    unit_cap_modifier: 4
  - name: wall
    solid: true
    health: 40
bullets:
  - name: basic
    damage: 9
    speed: 2
    lifetime: 60
    hit_size: 4
units:
  - name: dagger
    speed: 0.5
    health: 100
    hit_size: 8
    weapons:
      - name: gun
        reload: 13
        bullet: basic
  - name: flare
    flying: true
    speed: 2.7
    health: 70
    hit_size: 9
  - name: dummy
    health: 100
    hit_size: 8
    controller: none
`

const testMap = `
width: 60
height: 40
default_floor: stone
blocks:
  - {x: 4, y: 20, block: core, team: 1, items: {copper: 100}}
  - {x: 50, y: 20, block: wall, team: 2}
units:
  - {kind: dagger, team: 1, x: 10, y: 18}
  - {kind: dagger, team: 1, x: 10, y: 22}
  - {kind: flare, team: 1, x: 8, y: 20}
  - {kind: dagger, team: 2, x: 30, y: 20}
`

// relay records every frame a host publishes and forwards it, decoded, to a
// replica when one is attached.
type relay struct {
	t      *testing.T
	frames []call.Call
	to     *Session
}

func (r *relay) Broadcast(frame []byte) {
	c, err := call.Decode(frame)
	require.NoError(r.t, err)
	r.frames = append(r.frames, c)
	if r.to != nil {
		r.to.Receive(c)
	}
}

func (r *relay) ops() []call.Opcode {
	out := make([]call.Opcode, 0, len(r.frames))
	for _, c := range r.frames {
		out = append(out, c.Op())
	}
	return out
}

func loadFixtures(t *testing.T) (*content.Catalog, *world.Grid) {
	t.Helper()
	cat, err := content.Parse([]byte(testContent))
	require.NoError(t, err)
	grid, err := world.ParseMap([]byte(testMap), cat)
	require.NoError(t, err)
	return cat, grid
}

func newTestSession(t *testing.T, authority bool) *Session {
	t.Helper()
	cat, grid := loadFixtures(t)
	r := rules.Default()
	r.UnitCapVariable = true
	s, err := NewSession(Options{
		Rules:     r,
		Content:   cat,
		Grid:      grid,
		Seed:      7,
		Authority: authority,
		Headless:  true,
	})
	require.NoError(t, err)
	return s
}

// newPair returns a host wired to a replica through a relay.
func newPair(t *testing.T) (host, replica *Session, rl *relay) {
	t.Helper()
	host = newTestSession(t, true)
	replica = newTestSession(t, false)
	rl = &relay{t: t, to: replica}
	host.SetBroadcaster(rl)
	return host, replica, rl
}

// step runs one full tick the way the system runner orders it.
func step(s *Session) {
	s.ApplyPending()
	s.Bus().SwapBuffers()
	s.Bus().DispatchAll()
	s.UpdateUnits(1)
	s.UpdateBullets()
	s.Replicate()
	s.EndTick()
}

// follow steps a replica through every batch it has received.
func follow(s *Session) {
	for s.Ready() > 0 {
		step(s)
	}
}

func run(host, replica *Session, ticks int) {
	for i := 0; i < ticks; i++ {
		step(host)
		if replica != nil {
			follow(replica)
		}
	}
}
