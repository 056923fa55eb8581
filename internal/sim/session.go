// Package sim owns one simulation session: the unit store, the spatial
// index, combat, remote invocation apply and replication. It runs on the game
// loop goroutine only.
package sim

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/core/ecs"
	"github.com/l1jgo/skirmish/internal/core/event"
	"github.com/l1jgo/skirmish/internal/rules"
	"github.com/l1jgo/skirmish/internal/team"
	"github.com/l1jgo/skirmish/internal/unit"
	"github.com/l1jgo/skirmish/internal/world"
)

// cellSize is the spatial bucket edge in world units.
const cellSize = 64

// Options configures a session.
type Options struct {
	Rules   *rules.Rules
	Content *content.Catalog
	Grid    *world.Grid
	Seed    int64

	// Authority is true on the host. Replicas apply what the host sends.
	Authority bool
	Headless  bool

	Hooks    unit.Hooks
	Programs unit.Programs
	Effects  unit.Effects
	Log      *zap.Logger

	SyncInterval   int // ticks between unit sync broadcasts
	DigestInterval int // ticks between digest checkpoints
	// LocalPlayer names the player driven from this process, if any.
	LocalPlayer string
}

// Broadcaster receives every encoded frame the host publishes.
type Broadcaster interface {
	Broadcast(frame []byte)
}

// batch is one host tick worth of frames as seen by a replica.
type batch struct {
	calls []call.Call
	syncs []call.UnitSync
	cp    call.Checkpoint
}

// Session is the simulation context of one world.
type Session struct {
	opts Options
	log  *zap.Logger

	world   *ecs.World
	units   *ecs.Store[unit.Unit]
	cells   *world.CellGrid
	index   *Index
	combat  *Combat
	bus     *event.Bus
	ctx     *unit.Context
	players map[string]*unit.Player

	out Broadcaster

	// replica only
	current batch
	ready   []batch
	active  *batch

	tick       uint64
	mismatches int
}

// NewSession builds a session over an already loaded grid.
func NewSession(opts Options) (*Session, error) {
	if opts.Rules == nil || opts.Content == nil || opts.Grid == nil {
		return nil, fmt.Errorf("sim: rules, content and grid are required")
	}
	if err := unit.ValidateOverrides(opts.Content); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Effects == nil {
		opts.Effects = unit.NopEffects{}
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = 6
	}
	if opts.DigestInterval <= 0 {
		opts.DigestInterval = 60
	}

	s := &Session{
		opts:    opts,
		log:     opts.Log.Named("sim"),
		world:   ecs.NewWorld(),
		units:   ecs.NewStore[unit.Unit](),
		cells:   world.NewCellGrid(cellSize),
		bus:     event.NewBus(),
		players: make(map[string]*unit.Player),
	}
	s.world.Register(s.units)
	s.index = newIndex(opts.Grid, s.units, s.cells)
	s.combat = newCombat(s)

	teams := team.NewRegistry(opts.Rules)
	for _, b := range opts.Grid.Buildings() {
		if b.Block.Core {
			teams.AddCore(b.Team, b.Block)
		}
	}

	s.ctx = &unit.Context{
		Rules:       opts.Rules,
		Content:     opts.Content,
		Teams:       teams,
		World:       s.index,
		Units:       s,
		Calls:       call.NewQueue(),
		Bus:         s.bus,
		Effects:     opts.Effects,
		Combat:      s.combat,
		Hooks:       opts.Hooks,
		Controllers: unit.NewControllerFactory(opts.Programs),
		Rand:        rand.New(rand.NewSource(opts.Seed)),
		Log:         s.log,
		Delta:       1,
		Authority:   opts.Authority,
		Headless:    opts.Headless,
	}
	return s, nil
}

// Context exposes the unit context for systems and scripting.
func (s *Session) Context() *unit.Context { return s.ctx }

// Bus returns the session's event bus.
func (s *Session) Bus() *event.Bus { return s.bus }

// World returns the entity world whose destroy queue the cleanup system flushes.
func (s *Session) World() *ecs.World { return s.world }

// Teams returns the team registry.
func (s *Session) Teams() *team.Registry { return s.ctx.Teams }

// Grid returns the tile map.
func (s *Session) Grid() *world.Grid { return s.opts.Grid }

// Authority reports whether this session is the host.
func (s *Session) Authority() bool { return s.opts.Authority }

// Tick returns the number of completed ticks.
func (s *Session) Tick() uint64 { return s.tick }

// Mismatches returns how many digest checkpoints disagreed with the host.
func (s *Session) Mismatches() int { return s.mismatches }

// SetBroadcaster installs the host's frame fan-out.
func (s *Session) SetBroadcaster(b Broadcaster) { s.out = b }

func (s *Session) broadcast(c call.Call) {
	if s.out != nil {
		s.out.Broadcast(call.Encode(c))
	}
}

// Unit returns a live registered unit by id.
func (s *Session) Unit(id ecs.EntityID) *unit.Unit {
	u, ok := s.units.Get(id)
	if !ok || !u.IsAdded() {
		return nil
	}
	return u
}

// Units visits registered units in id order.
func (s *Session) Units(fn func(*unit.Unit)) {
	s.units.Each(func(_ ecs.EntityID, u *unit.Unit) {
		if u.IsAdded() {
			fn(u)
		}
	})
}

// Count returns the number of registered units.
func (s *Session) Count() int {
	n := 0
	s.Units(func(*unit.Unit) { n++ })
	return n
}

// Unregister drops a removed unit from the index and queues its entity for
// the cleanup phase.
func (s *Session) Unregister(u *unit.Unit) {
	s.cells.Remove(u.ID)
	s.world.MarkForDestruction(u.ID)
}

// register inserts a freshly created unit and runs its add hook.
func (s *Session) register(u *unit.Unit) {
	s.units.Set(u.ID, u)
	s.cells.Put(u.ID, u.X, u.Y)
	u.Add(s.ctx)
}

// Spawn requests a new unit. Only the host may spawn; the unit appears when
// the call is applied at the start of the next tick.
func (s *Session) Spawn(kind string, tm team.ID, x, y, rotation float64, byCore bool) error {
	t := s.opts.Content.Unit(kind)
	if t == nil {
		return fmt.Errorf("%w: %q", unit.ErrUnknownKind, kind)
	}
	if !s.ctx.Issue(call.Spawn{Kind: t.ID, Team: tm, X: x, Y: y, Rotation: rotation, SpawnedByCore: byCore}) {
		return fmt.Errorf("sim: spawn %q: not authoritative", kind)
	}
	return nil
}

// Control hands a unit to the named player, or back to AI when name is
// empty. Host only.
func (s *Session) Control(id ecs.EntityID, player string) bool {
	return s.ctx.Issue(call.UnitControl{UnitID: id, Player: player})
}

// SetIntent records the next movement and fire intent of a player. Intents
// are consumed by the player's controller in the update phase.
func (s *Session) SetIntent(player string, in unit.Intent) bool {
	p, ok := s.players[player]
	if !ok {
		return false
	}
	p.SetIntent(in)
	return true
}

// Disconnect marks a player's controller invalid. On the host its unit is
// handed back to AI through a control call so replicas follow.
func (s *Session) Disconnect(player string) {
	p, ok := s.players[player]
	if !ok {
		return
	}
	if u := p.Unit(); u != nil && u.IsAdded() {
		s.Control(u.ID, "")
	}
	p.Disconnect()
	delete(s.players, player)
}

func (s *Session) player(name string) *unit.Player {
	p, ok := s.players[name]
	if !ok {
		p = unit.NewPlayer(name, name == s.opts.LocalPlayer)
		s.players[name] = p
	}
	return p
}

// Populate requests the map's starting units. Host only.
func (s *Session) Populate() error {
	for _, p := range s.opts.Grid.Placements() {
		x, y := float64(p.X*world.TileSize), float64(p.Y*world.TileSize)
		if err := s.Spawn(p.Kind, p.Team, x, y, 0, p.Core); err != nil {
			return err
		}
	}
	return nil
}
