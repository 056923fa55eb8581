package team

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/rules"
)

func TestCountsNeverGoNegative(t *testing.T) {
	r := NewRegistry(rules.Default())
	dagger := &content.UnitType{ID: 0, Name: "dagger"}
	flare := &content.UnitType{ID: 1, Name: "flare"}

	assert.True(t, r.UpdateCount(1, dagger, 1))
	assert.True(t, r.UpdateCount(1, dagger, 1))
	assert.True(t, r.UpdateCount(1, flare, 1))
	assert.Equal(t, 2, r.CountType(1, dagger))
	assert.Equal(t, 3, r.Total(1))

	assert.True(t, r.UpdateCount(1, flare, -1))
	assert.False(t, r.UpdateCount(1, flare, -1))
	assert.Zero(t, r.CountType(1, flare))
	assert.Equal(t, 2, r.Total(1))
	assert.False(t, r.UpdateCount(1, nil, 1))
	assert.Zero(t, r.CountType(1, nil))
}

func TestCap(t *testing.T) {
	rs := rules.Default()
	rs.UnitCap = 10
	rs.UnitCapVariable = true
	r := NewRegistry(rs)
	core := &content.Block{Name: "core", Core: true, UnitCapModifier: 8}
	wall := &content.Block{Name: "wall", UnitCapModifier: 50}

	assert.Equal(t, 10, r.Cap(1))
	r.AddCore(1, core)
	r.AddCore(1, wall)
	assert.Equal(t, 18, r.Cap(1))
	r.RemoveCore(1, core)
	assert.Equal(t, 10, r.Cap(1))

	assert.Equal(t, math.MaxInt32, r.Cap(rs.WaveTeam))
	rs.PvP = true
	assert.Equal(t, 10, r.Cap(rs.WaveTeam))

	rs.UnitCapVariable = false
	r.AddCore(1, core)
	assert.Equal(t, 10, r.Cap(1))
}

func TestIsAlly(t *testing.T) {
	assert.True(t, IsAlly(2, 2))
	assert.False(t, IsAlly(1, 2))
}
