package unit

import (
	"math"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/world"
)

// Update advances the unit by one tick.
func (u *Unit) Update(ctx *Context) {
	if !u.added {
		return
	}
	t := u.Type
	if t.Has(content.CapStatus) {
		u.updateStatus(ctx)
	}
	if t.Has(content.CapCommander) {
		u.updateCommander()
	}

	if t.Hook != "" && ctx.Hooks != nil {
		ctx.Hooks.RunUnitHook(ctx, t.Hook, u)
	}

	if u.wasHealed && u.healTime <= -1 {
		u.healTime = 1
	}
	u.healTime -= ctx.Delta / 20
	u.hitTime -= ctx.Delta / 9
	u.wasHealed = false

	if !t.SupportsEnv(ctx.Rules.Environment) && !u.dead && !u.removeIssued {
		if ctx.Issue(call.UnitCapDeath{UnitID: u.ID}) {
			u.removeIssued = true
			u.uncount(ctx)
		}
	}

	if ctx.Rules.UnitAmmo && u.Ammo < t.AmmoCapacity-0.0001 {
		u.resupplyTime += ctx.Delta
		if u.resupplyTime > resupplyInterval {
			u.requestResupply(ctx)
			u.resupplyTime = 0
		}
	}

	for _, a := range u.Abilities {
		a.Update(ctx, u)
	}

	floor := u.FloorOn(ctx)
	floorDrag := 1.0
	if floor != nil && u.IsGrounded() {
		floorDrag = floor.DragMultiplier
	}
	u.Drag = t.Drag * floorDrag * u.DragMultiplier

	if ctx.Rules.DropZonesBlockUnits && u.Team != ctx.Rules.WaveTeam && (ctx.Authority || u.IsLocal()) {
		u.repelFromSpawns(ctx)
	}

	if u.dead || u.health <= 0 {
		u.fall(ctx)
	}

	tile := u.TileOn(ctx)
	if tile != nil && u.IsGrounded() && !u.Hovering {
		if tile.Build != nil {
			tile.Build.UnitOn(uint64(u.ID))
		}
		if floor != nil && floor.DamageTaken > 0 {
			u.DamageContinuous(ctx, floor.DamageTaken)
		}
	}

	if tile != nil && !u.behaviors.CanPassOn(u, tile) {
		if t.CanBoost {
			u.Elevation = 1
		} else {
			u.Kill(ctx)
		}
	}

	if ctx.Authority && !u.dead {
		u.controller.UpdateUnit(ctx)
	}

	if !u.controller.IsValid() {
		u.ResetController(ctx)
	}

	if u.SpawnedByCore && !u.IsPlayer() && !u.dead && !u.removeIssued {
		if ctx.Issue(call.UnitDespawn{UnitID: u.ID}) {
			u.removeIssued = true
		}
	}

	if t.Has(content.CapWeapons) && !u.dead {
		u.updateWeapons(ctx)
	}
	u.updateElevation(ctx)
	if t.Has(content.CapPhysics) {
		u.integrate(ctx)
	}
	if t.Has(content.CapBounded) {
		u.bound(ctx)
	}
	if !u.dead {
		u.ClampHealth()
	}
}

func (u *Unit) repelFromSpawns(ctx *Context) {
	spawns := ctx.World.Spawns()
	if len(spawns) == 0 {
		return
	}
	size := ctx.Rules.DropZoneRadius + u.HitSize/2 + 1
	for _, p := range spawns {
		sx, sy := float64(p.X*world.TileSize), float64(p.Y*world.TileSize)
		d := dst(u.X, u.Y, sx, sy)
		if d >= size {
			continue
		}
		vx, vy := setLength(u.X-sx, u.Y-sy, (0.1+1-d/size)*0.45*ctx.Delta)
		u.Impulse(vx, vy)
	}
}

// fall simulates a dying unit dropping out of the sky.
func (u *Unit) fall(ctx *Context) {
	t := u.Type
	u.Drag = 0.01
	if ctx.Chance(0.1) {
		ox, oy := trns(ctx.Rand.Float64()*360, ctx.Rand.Float64()*u.HitSize/3)
		ctx.Effects.Effect(t.FallEffect, u.X+ox, u.Y+oy, 0, 0)
	}
	if ctx.Chance(0.2) {
		offset := t.EngineOffset/2 + t.EngineOffset/2*u.Elevation
		ox, oy := trns(u.Rotation+180, offset)
		ctx.Effects.Effect(t.FallThrusterEffect, u.X+ox+ctx.Range(t.EngineSize), u.Y+oy+ctx.Range(t.EngineSize), 0, 0)
	}
	u.Elevation = math.Max(u.Elevation-t.FallSpeed*ctx.Delta, 0)
	if (u.IsGrounded() || u.health <= -u.maxHealth) && !u.destroyIssued {
		if ctx.Issue(call.UnitDestroy{UnitID: u.ID}) {
			u.destroyIssued = true
		}
	}
}

// bound keeps the unit inside the world, pushing strays back and killing
// units that escape too far.
func (u *Unit) bound(ctx *Context) {
	w, h := ctx.World.Bounds()
	if w <= 0 || h <= 0 {
		return
	}
	if ctx.Authority || u.IsLocal() {
		var dx, dy float64
		if u.X < 0 {
			dx += -u.X / warpDst
		}
		if u.Y < 0 {
			dy += -u.Y / warpDst
		}
		if u.X > w {
			dx -= (u.X - w) / warpDst
		}
		if u.Y > h {
			dy -= (u.Y - h) / warpDst
		}
		u.Impulse(dx*ctx.Delta, dy*ctx.Delta)
	}
	if u.IsGrounded() {
		u.X = math.Max(0, math.Min(u.X, w-world.TileSize))
		u.Y = math.Max(0, math.Min(u.Y, h-world.TileSize))
	}
	const finalBounds = 250
	if u.X < -finalBounds || u.Y < -finalBounds || u.X > w+finalBounds || u.Y > h+finalBounds {
		u.Kill(ctx)
	}
}
