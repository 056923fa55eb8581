package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/unit"
	"github.com/l1jgo/skirmish/internal/world"
)

// Engine wraps a single gopher-lua VM running unit hooks and logic programs.
// Single-goroutine access only (game loop).
type Engine struct {
	vm      *lua.LState
	log     *zap.Logger
	stopped map[string]bool

	// ctx is the simulation context of the call in flight; sense() reads
	// through it.
	ctx *unit.Context
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, stopped: make(map[string]bool)}
	vm.SetGlobal("sense", vm.NewFunction(e.luaSense))
	vm.SetGlobal("sense_object", vm.NewFunction(e.luaSenseObject))
	vm.SetGlobal("effect", vm.NewFunction(e.luaEffect))

	// Load shared helpers first, then hooks and programs
	for _, sub := range []string{"core", "hooks", "programs"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a global function name is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// --- Unit hooks ---

// RunUnitHook calls the Lua global name(u). The return value is ignored;
// hooks observe the unit and may emit effects.
func (e *Engine) RunUnitHook(ctx *unit.Context, name string, u *unit.Unit) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return
	}
	e.ctx = ctx
	defer func() { e.ctx = nil }()

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, e.unitTable(ctx, u)); err != nil {
		e.log.Error("lua unit hook error", zap.String("hook", name), zap.Error(err))
	}
}

// --- Logic programs ---

type program struct {
	e    *Engine
	name string
}

func (p *program) Name() string { return p.name }
func (p *program) Alive() bool  { return !p.e.stopped[p.name] && p.e.Has(p.name) }

func (p *program) Step(ctx *unit.Context, u *unit.Unit) []unit.Command {
	return p.e.runProgram(ctx, p.name, u)
}

// Program returns the logic program defined by the Lua global name, or nil.
func (e *Engine) Program(name string) unit.Program {
	if !e.Has(name) {
		return nil
	}
	return &program{e: e, name: name}
}

// Stop terminates a program; units running it fall back to their default
// controller on their next tick.
func (e *Engine) Stop(name string) { e.stopped[name] = true }

var commandTypes = map[string]unit.CommandType{
	"idle":     unit.CmdIdle,
	"move":     unit.CmdMove,
	"approach": unit.CmdApproach,
	"shoot":    unit.CmdShoot,
	"stop":     unit.CmdStopShoot,
	"flag":     unit.CmdFlag,
	"boost":    unit.CmdBoost,
}

// runProgram calls Lua name(u) and returns the commands it produced.
func (e *Engine) runProgram(ctx *unit.Context, name string, u *unit.Unit) []unit.Command {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return nil
	}
	e.ctx = ctx
	defer func() { e.ctx = nil }()

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, e.unitTable(ctx, u)); err != nil {
		e.log.Error("lua program error", zap.String("program", name), zap.Error(err))
		return nil
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil
	}

	// Parse commands array
	var cmds []unit.Command
	rt.ForEach(func(_, v lua.LValue) {
		row, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		typ, ok := commandTypes[lStr(row, "type")]
		if !ok {
			e.log.Warn("lua program: unknown command", zap.String("program", name), zap.String("type", lStr(row, "type")))
			return
		}
		cmds = append(cmds, unit.Command{
			Type:   typ,
			X:      lNum(row, "x"),
			Y:      lNum(row, "y"),
			Radius: lNum(row, "radius"),
			Value:  lNum(row, "value"),
			On:     lua.LVAsBool(row.RawGetString("on")),
		})
	})
	return cmds
}

// --- Sensor bridge ---

// unitTable packs the commonly read sensors of u. The unit itself rides
// along as userdata so sense() can answer anything else.
func (e *Engine) unitTable(ctx *unit.Context, u *unit.Unit) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(u.ID))
	t.RawSetString("kind", lua.LString(u.Type.Name))
	for _, s := range []unit.Sensor{
		unit.SensorX, unit.SensorY, unit.SensorHealth, unit.SensorMaxHealth,
		unit.SensorTeam, unit.SensorAmmo, unit.SensorFlag, unit.SensorRange,
		unit.SensorRotation, unit.SensorTotalItems,
	} {
		t.RawSetString(s.String(), lua.LNumber(u.Sense(ctx, s)))
	}
	ud := e.vm.NewUserData()
	ud.Value = u
	t.RawSetString("handle", ud)
	return t
}

func (e *Engine) checkUnit(L *lua.LState) (*unit.Unit, unit.Sensor, bool) {
	t := L.CheckTable(1)
	name := L.CheckString(2)
	ud, ok := t.RawGetString("handle").(*lua.LUserData)
	if !ok {
		return nil, 0, false
	}
	u, ok := ud.Value.(*unit.Unit)
	if !ok {
		return nil, 0, false
	}
	s, ok := unit.ParseSensor(name)
	if !ok {
		// unknown sensors still answer, with NaN
		s = unit.Sensor(255)
	}
	return u, s, true
}

// sense(u, "name") -> number
func (e *Engine) luaSense(L *lua.LState) int {
	u, s, ok := e.checkUnit(L)
	if !ok || e.ctx == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(u.Sense(e.ctx, s)))
	return 1
}

// sense_object(u, "name") -> string or unit table or nil
func (e *Engine) luaSenseObject(L *lua.LState) int {
	u, s, ok := e.checkUnit(L)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	switch v := u.SenseObject(s).(type) {
	case *content.UnitType:
		L.Push(lua.LString(v.Name))
	case *content.Item:
		L.Push(lua.LString(v.Name))
	case *content.Block:
		L.Push(lua.LString(v.Name))
	case string:
		L.Push(lua.LString(v))
	case unit.Program:
		L.Push(lua.LString(v.Name()))
	case *unit.Unit:
		if e.ctx == nil {
			L.Push(lua.LNil)
		} else {
			L.Push(e.unitTable(e.ctx, v))
		}
	default:
		L.Push(lua.LNil)
	}
	return 1
}

// effect("name", x, y) spawns a cosmetic effect at tile coordinates.
func (e *Engine) luaEffect(L *lua.LState) int {
	name := L.CheckString(1)
	x := float64(L.CheckNumber(2))
	y := float64(L.CheckNumber(3))
	if e.ctx != nil && e.ctx.Effects != nil {
		e.ctx.Effects.Effect(name, x*world.TileSize, y*world.TileSize, 0, 0)
	}
	return 0
}

// --- Lua helpers ---

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// lNum reads a number field from a Lua table.
func lNum(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
