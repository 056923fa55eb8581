package unit

import (
	"math"
	"strings"

	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/core/event"
	"github.com/l1jgo/skirmish/internal/world"
)

// Controller steers one unit. A unit always has exactly one controller and
// the controller's Unit always points back at it.
type Controller interface {
	Unit() *Unit
	SetUnit(u *Unit)
	// UpdateUnit makes the tick's decisions. Called on the authority only.
	UpdateUnit(ctx *Context)
	IsValid() bool
	// Removed is told when the controlled unit leaves the simulation.
	Removed(u *Unit)
	Name() string
}

// Controller returns the unit's current controller.
func (u *Unit) Controller() Controller { return u.controller }

// SetController hands the unit to c, detaching any previous controller.
func (u *Unit) SetController(ctx *Context, c Controller) {
	if c == nil {
		return
	}
	if prev := u.controller; prev != nil && prev != c {
		prev.Removed(u)
	}
	u.controller = c
	if c.Unit() != u {
		c.SetUnit(u)
	}
	if u.added {
		event.Emit(ctx.Bus, event.UnitControlChanged{UnitID: u.ID, Controller: c.Name()})
	}
}

// ResetController hands the unit back to its kind's default controller.
func (u *Unit) ResetController(ctx *Context) {
	u.SetController(ctx, ctx.Controllers.Create(u.Type))
}

// IsPlayer reports whether a player steers the unit.
func (u *Unit) IsPlayer() bool {
	_, ok := u.controller.(*Player)
	return ok
}

// IsLocal reports whether the unit is steered by this process's player.
func (u *Unit) IsLocal() bool {
	p, ok := u.controller.(*Player)
	return ok && p.Local
}

// ControllerName is the player name behind the unit, directly or through a
// formation leader or program. Empty when none.
func (u *Unit) ControllerName() string {
	switch c := u.controller.(type) {
	case *Player:
		return c.PlayerName
	case *LogicAI:
		if c.Program != nil {
			return c.Program.Name()
		}
	case *FormationAI:
		if c.Leader != nil {
			if p, ok := c.Leader.controller.(*Player); ok {
				return p.PlayerName
			}
		}
	}
	return ""
}

// Intent is one tick of player input.
type Intent struct {
	MoveX, MoveY float64
	AimX, AimY   float64
	Shoot        bool
	Boost        bool
}

// Player is a human-driven controller fed by Intent.
type Player struct {
	PlayerName string
	Local      bool

	unit      *Unit
	intent    Intent
	connected bool
}

func NewPlayer(name string, local bool) *Player {
	return &Player{PlayerName: name, Local: local, connected: true}
}

func (p *Player) Unit() *Unit     { return p.unit }
func (p *Player) SetUnit(u *Unit) { p.unit = u }
func (p *Player) IsValid() bool   { return p.connected }
func (p *Player) Removed(*Unit)   {}
func (p *Player) Name() string    { return "player:" + p.PlayerName }

// SetIntent stores input for the next update.
func (p *Player) SetIntent(i Intent) { p.intent = i }

// Disconnect invalidates the controller so the unit falls back to AI.
func (p *Player) Disconnect() { p.connected = false }

func (p *Player) UpdateUnit(ctx *Context) {
	u := p.unit
	in := p.intent
	speed := u.Speed(ctx)
	mx, my := limit(in.MoveX, in.MoveY, 1)
	u.MovePref(ctx, mx*speed, my*speed)
	u.Boosting = in.Boost
	u.Aim(in.AimX, in.AimY)
	u.ControlWeapons(in.Shoot, in.Shoot)
	switch {
	case in.Shoot:
		u.LookAtPoint(ctx, in.AimX, in.AimY)
	case mx != 0 || my != 0:
		if u.Type.IsOmni() {
			u.LookAt(ctx, angle(mx, my))
		}
	}
}

type aiBase struct{ unit *Unit }

func (a *aiBase) Unit() *Unit     { return a.unit }
func (a *aiBase) SetUnit(u *Unit) { a.unit = u }
func (a *aiBase) IsValid() bool   { return true }
func (a *aiBase) Removed(*Unit)   {}

// moveTo steers toward (x, y), stopping circle units short of it.
func moveTo(ctx *Context, u *Unit, x, y, circle float64) {
	const smooth = 100
	vx, vy := x-u.X, y-u.Y
	length := 1.0
	if circle > 0.001 {
		length = math.Max(-1, math.Min((dst(u.X, u.Y, x, y)-circle)/smooth, 1))
	}
	vx, vy = setLength(vx, vy, u.Speed(ctx)*length)
	switch {
	case length < -0.5:
		vx, vy = -vx, -vy
	case length < 0:
		vx, vy = 0, 0
	}
	u.MovePref(ctx, vx, vy)
}

func setLength(x, y, l float64) (float64, float64) {
	m := math.Hypot(x, y)
	if m == 0 {
		return 0, 0
	}
	return x / m * math.Abs(l), y / m * math.Abs(l)
}

// targetOrCore picks the closest hostile unit in range, else the closest
// hostile core anywhere.
func targetOrCore(ctx *Context, u *Unit) (x, y float64, unit *Unit, ok bool) {
	if t := ctx.World.ClosestTarget(u.Team, u.X, u.Y, math.Max(u.Range(), 1)*2); t != nil {
		return t.X, t.Y, t, true
	}
	b := ctx.World.ClosestBuilding(u.X, u.Y, math.Inf(1), func(b *world.Building) bool {
		return b.Block.Core && b.Team != u.Team
	})
	if b != nil {
		return b.X(), b.Y(), nil, true
	}
	return 0, 0, nil, false
}

// GroundAI walks toward the nearest enemy and fires when in range.
type GroundAI struct{ aiBase }

func NewGroundAI() *GroundAI  { return &GroundAI{} }
func (*GroundAI) Name() string { return "ground" }

func (a *GroundAI) UpdateUnit(ctx *Context) {
	u := a.unit
	x, y, _, ok := targetOrCore(ctx, u)
	if !ok {
		u.ControlWeapons(false, false)
		return
	}
	in := u.InRange(x, y)
	if !in {
		moveTo(ctx, u, x, y, u.Range()*0.8)
	}
	u.AimLook(ctx, x, y)
	u.ControlWeapons(in, in)
}

// FlyingAI circles the nearest enemy at weapon range.
type FlyingAI struct{ aiBase }

func NewFlyingAI() *FlyingAI  { return &FlyingAI{} }
func (*FlyingAI) Name() string { return "flying" }

func (a *FlyingAI) UpdateUnit(ctx *Context) {
	u := a.unit
	x, y, _, ok := targetOrCore(ctx, u)
	if !ok {
		u.ControlWeapons(false, false)
		return
	}
	moveTo(ctx, u, x, y, u.Range()*0.8)
	in := u.InRange(x, y)
	u.Aim(x, y)
	if !u.Type.IsOmni() {
		u.LookAtPoint(ctx, x, y)
	}
	u.ControlWeapons(in, in)
}

// FleeAI keeps away from hostiles.
type FleeAI struct{ aiBase }

func NewFleeAI() *FleeAI    { return &FleeAI{} }
func (*FleeAI) Name() string { return "flee" }

func (a *FleeAI) UpdateUnit(ctx *Context) {
	u := a.unit
	t := ctx.World.ClosestTarget(u.Team, u.X, u.Y, math.Max(u.Range(), 80)*1.5)
	u.ControlWeapons(false, false)
	if t == nil {
		return
	}
	moveTo(ctx, u, u.X*2-t.X, u.Y*2-t.Y, 0)
}

// IdleAI does nothing.
type IdleAI struct{ aiBase }

func NewIdleAI() *IdleAI    { return &IdleAI{} }
func (*IdleAI) Name() string { return "none" }
func (*IdleAI) UpdateUnit(*Context) {}

// FormationAI holds a slot relative to a commanding leader.
type FormationAI struct {
	aiBase
	Leader           *Unit
	OffsetX, OffsetY float64
}

func NewFormationAI(leader *Unit, ox, oy float64) *FormationAI {
	return &FormationAI{Leader: leader, OffsetX: ox, OffsetY: oy}
}

func (*FormationAI) Name() string { return "formation" }

func (a *FormationAI) IsValid() bool {
	return a.Leader != nil && a.Leader.IsValid()
}

func (a *FormationAI) Removed(u *Unit) {
	if a.Leader != nil {
		a.Leader.dropMember(u)
	}
}

func (a *FormationAI) UpdateUnit(ctx *Context) {
	u, l := a.unit, a.Leader
	ox, oy := rotate(a.OffsetX, a.OffsetY, l.Rotation)
	moveTo(ctx, u, l.X+ox, l.Y+oy, 0)
	if l.IsShooting() {
		x, y := l.AimPoint()
		u.AimLook(ctx, x, y)
		u.ControlWeapons(true, true)
	} else {
		u.ControlWeapons(false, false)
		u.LookAt(ctx, l.Rotation)
	}
}

func rotate(x, y, deg float64) (float64, float64) {
	r := deg * math.Pi / 180
	c, s := math.Cos(r), math.Sin(r)
	return x*c - y*s, x*s + y*c
}

// CommandType is the verb of a program command.
type CommandType uint8

const (
	CmdIdle CommandType = iota
	CmdMove
	CmdApproach
	CmdShoot
	CmdStopShoot
	CmdFlag
	CmdBoost
)

// Command is one instruction emitted by a program for this tick.
type Command struct {
	Type   CommandType
	X, Y   float64
	Radius float64
	Value  float64
	On     bool
}

// Program is an external script steering a unit.
type Program interface {
	Name() string
	Alive() bool
	Step(ctx *Context, u *Unit) []Command
}

// Programs looks programs up by name.
type Programs interface {
	Program(name string) Program
}

// logicControlTimeout is how long a program may go without issuing a
// command before its unit falls back to AI.
const logicControlTimeout = 10 * 60

// LogicAI runs a Program. Coordinates in commands are in tiles.
type LogicAI struct {
	aiBase
	Program Program

	controlTimer float64
	moveX, moveY float64
	radius       float64
	moving       bool
	approaching  bool
}

func NewLogicAI(p Program) *LogicAI { return &LogicAI{Program: p} }

func (a *LogicAI) Name() string {
	if a.Program == nil {
		return "logic"
	}
	return "logic:" + a.Program.Name()
}

func (a *LogicAI) IsValid() bool {
	return a.Program != nil && a.Program.Alive() && a.controlTimer < logicControlTimeout
}

func (a *LogicAI) UpdateUnit(ctx *Context) {
	u := a.unit
	cmds := a.Program.Step(ctx, u)
	if len(cmds) > 0 {
		a.controlTimer = 0
	} else {
		a.controlTimer += ctx.Delta
	}
	for _, c := range cmds {
		a.apply(c)
	}
	if a.moving {
		circle := 0.0
		if a.approaching {
			circle = a.radius
		}
		moveTo(ctx, u, a.moveX, a.moveY, circle)
	}
}

func (a *LogicAI) apply(c Command) {
	u := a.unit
	x, y := c.X*world.TileSize, c.Y*world.TileSize
	switch c.Type {
	case CmdIdle:
		a.moving = false
		u.ControlWeapons(false, false)
	case CmdMove:
		a.moving, a.approaching = true, false
		a.moveX, a.moveY = x, y
	case CmdApproach:
		a.moving, a.approaching = true, true
		a.moveX, a.moveY = x, y
		a.radius = c.Radius * world.TileSize
	case CmdShoot:
		u.Aim(x, y)
		u.ControlWeapons(true, true)
	case CmdStopShoot:
		u.ControlWeapons(false, false)
	case CmdFlag:
		u.Flag = c.Value
	case CmdBoost:
		u.Boosting = c.On
	}
}

// ControllerFactory creates default controllers by name. Names of the form
// "logic:<program>" resolve through Programs.
type ControllerFactory struct {
	byName   map[string]func() Controller
	Programs Programs
}

func NewControllerFactory(p Programs) *ControllerFactory {
	f := &ControllerFactory{byName: make(map[string]func() Controller), Programs: p}
	f.Register("ground", func() Controller { return NewGroundAI() })
	f.Register("flying", func() Controller { return NewFlyingAI() })
	f.Register("flee", func() Controller { return NewFleeAI() })
	f.Register("none", func() Controller { return NewIdleAI() })
	return f
}

// Register adds or replaces a named controller.
func (f *ControllerFactory) Register(name string, fn func() Controller) {
	f.byName[name] = fn
}

// Create returns a fresh default controller for kind t. Unknown names and
// missing programs fall back to the movement-class default.
func (f *ControllerFactory) Create(t *content.UnitType) Controller {
	if prog, ok := strings.CutPrefix(t.Controller, "logic:"); ok && f.Programs != nil {
		if p := f.Programs.Program(prog); p != nil {
			return NewLogicAI(p)
		}
	}
	if fn, ok := f.byName[t.Controller]; ok {
		return fn()
	}
	if t.Flying {
		return NewFlyingAI()
	}
	return NewGroundAI()
}
