package system

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/rules"
	"github.com/l1jgo/skirmish/internal/sim"
	"github.com/l1jgo/skirmish/internal/world"
)

const testContent = `
floors:
  - name: stone
bullets:
  - name: basic
    damage: 9
    speed: 2
    lifetime: 60
units:
  - name: dagger
    speed: 0.5
    health: 100
    hit_size: 8
    weapons:
      - name: gun
        reload: 13
        bullet: basic
`

const testMap = `
width: 40
height: 30
default_floor: stone
spawns:
  - {x: 20, y: 10}
  - {x: 20, y: 20}
units:
  - {kind: dagger, team: 1, x: 4, y: 4}
waves:
  - {kind: dagger, count: 2, every: 5}
`

func newTestSession(t *testing.T, authority bool) *sim.Session {
	t.Helper()
	cat, err := content.Parse([]byte(testContent))
	require.NoError(t, err)
	grid, err := world.ParseMap([]byte(testMap), cat)
	require.NoError(t, err)
	s, err := sim.NewSession(sim.Options{
		Rules:     rules.Default(),
		Content:   cat,
		Grid:      grid,
		Seed:      3,
		Authority: authority,
		Headless:  true,
	})
	require.NoError(t, err)
	return s
}
