package scripting

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/rules"
	"github.com/l1jgo/skirmish/internal/unit"
	"github.com/l1jgo/skirmish/internal/world"
)

type effectRecorder struct {
	names []string
	xs    []float64
}

func (r *effectRecorder) Effect(name string, x, _, _, _ float64) {
	r.names = append(r.names, name)
	r.xs = append(r.xs, x)
}
func (r *effectRecorder) Shake(_, _, _, _ float64)        {}
func (r *effectRecorder) Scorch(_, _ float64, _ int)      {}
func (r *effectRecorder) Sound(_ string, _, _, _ float64) {}
func (r *effectRecorder) Decal(_ string, _, _, _ float64) {}

func writeScript(t *testing.T, dir, sub, name, src string) {
	t.Helper()
	p := filepath.Join(dir, sub)
	require.NoError(t, os.MkdirAll(p, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(p, name), []byte(src), 0o644))
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	writeScript(t, dir, "core", "util.lua", `function half(v) return v / 2 end`)
	writeScript(t, dir, "hooks", "spark.lua", `function on_spark(u) effect("spark", u.x, u.y) end`)
	writeScript(t, dir, "programs", "steer.lua", `
function steer(u)
  return {
    {type = "move", x = u.x + 1, y = u.y},
    {type = "flag", value = half(sense(u, "health"))},
    {type = "bogus"},
    {type = "shoot", x = 3, y = 4, on = true},
  }
end`)
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func newTestUnit(e *Engine) (*unit.Context, *unit.Unit) {
	ctx := &unit.Context{
		Rules:       rules.Default(),
		Controllers: unit.NewControllerFactory(e),
		Rand:        rand.New(rand.NewSource(1)),
		Log:         zap.NewNop(),
	}
	kind := &content.UnitType{Name: "dagger", Health: 120, AmmoCapacity: 10, Controller: "logic:steer"}
	u := unit.New(ctx, 1, kind, 1)
	u.X, u.Y = 80, 40
	return ctx, u
}

func TestProgramCommands(t *testing.T) {
	e := newTestEngine(t)
	ctx, u := newTestUnit(e)

	_, ok := u.Controller().(*unit.LogicAI)
	require.True(t, ok, "logic controller resolved through the engine")

	p := e.Program("steer")
	require.NotNil(t, p)
	assert.Equal(t, "steer", p.Name())
	assert.True(t, p.Alive())

	cmds := p.Step(ctx, u)
	require.Len(t, cmds, 3)
	assert.Equal(t, unit.CmdMove, cmds[0].Type)
	assert.InDelta(t, world.Conv(80)+1, cmds[0].X, 1e-9)
	assert.InDelta(t, world.Conv(40), cmds[0].Y, 1e-9)
	assert.Equal(t, unit.CmdFlag, cmds[1].Type)
	assert.InDelta(t, 60, cmds[1].Value, 1e-9)
	assert.Equal(t, unit.CmdShoot, cmds[2].Type)
	assert.True(t, cmds[2].On)

	e.Stop("steer")
	assert.False(t, p.Alive())
}

func TestMissingProgram(t *testing.T) {
	e := newTestEngine(t)
	assert.Nil(t, e.Program("wander"))
	assert.False(t, e.Has("wander"))
	assert.True(t, e.Has("half"))
}

func TestUnitHookEffects(t *testing.T) {
	e := newTestEngine(t)
	ctx, u := newTestUnit(e)
	fx := &effectRecorder{}
	ctx.Effects = fx

	e.RunUnitHook(ctx, "on_spark", u)
	e.RunUnitHook(ctx, "on_missing", u)
	require.Equal(t, []string{"spark"}, fx.names)
	assert.InDelta(t, 80, fx.xs[0], 1e-9)
}

func TestNewEngineErrors(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "absent"), zap.NewNop())
	require.NoError(t, err)
	e.Close()

	dir := t.TempDir()
	writeScript(t, dir, "hooks", "broken.lua", `function on_broken(u`)
	_, err = NewEngine(dir, zap.NewNop())
	require.Error(t, err)
}
