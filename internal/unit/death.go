package unit

import (
	"math"

	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/core/event"
)

// notableExplosiveness is the explosiveness above which a player-caused
// death is reported as a notable destruction.
const notableExplosiveness = 7

// DeathBlast holds the explosion parameters derived from a carried stack.
type DeathBlast struct {
	Explosiveness float64
	Flammability  float64
	Power         float64
}

// Blast computes the explosion parameters of the carried stack.
func (u *Unit) Blast() DeathBlast {
	b := DeathBlast{Explosiveness: 2}
	if u.stack.Empty() {
		return b
	}
	it, n := u.stack.Item, float64(u.stack.Amount)
	b.Explosiveness += it.Explosiveness * n * 1.53
	b.Flammability = it.Flammability * n / 1.9
	b.Power = it.Charge * math.Pow(n, 1.11) * 160
	return b
}

// Add registers the unit with the session's team accounting. On the
// authority an over-cap unit is force-destroyed and its increment rolled
// back at once.
func (u *Unit) Add(ctx *Context) {
	if u.added {
		return
	}
	u.added = true
	ctx.Teams.UpdateCount(u.Team, u.Type, 1)
	u.counted = true
	if ctx.Authority && !u.SpawnedByCore && !u.dead && !ctx.Rules.Editor &&
		ctx.Teams.CountType(u.Team, u.Type) > ctx.Teams.Cap(u.Team) {
		ctx.Issue(call.UnitCapDeath{UnitID: u.ID})
		u.removeIssued = true
		u.uncount(ctx)
	}
	u.wasFlying = u.IsFlying()
	event.Emit(ctx.Bus, event.UnitCreated{UnitID: u.ID, Team: u.Team, Kind: u.Type.Name})
}

// uncount releases the unit's slot in the live count exactly once.
func (u *Unit) uncount(ctx *Context) {
	if !u.counted {
		return
	}
	u.counted = false
	if !ctx.Teams.UpdateCount(u.Team, u.Type, -1) && ctx.Log != nil {
		ctx.Log.Warn("unit count underflow", zap.Uint64("unit", uint64(u.ID)), zap.String("kind", u.Type.Name))
	}
}

// Remove unregisters the unit without any death effects. Safe to call more
// than once.
func (u *Unit) Remove(ctx *Context) {
	if !u.added {
		return
	}
	u.added = false
	u.uncount(ctx)
	if u.Type.Has(content.CapCommander) {
		u.ClearCommand(ctx)
	}
	if u.controller != nil {
		u.controller.Removed(u)
	}
	if ctx.Units != nil {
		ctx.Units.Unregister(u)
	}
}

// CapDeath handles a forced removal for population cap or environment:
// the unit is marked dead and destroyed.
func (u *Unit) CapDeath(ctx *Context) {
	if !u.added {
		return
	}
	u.dead = true
	ctx.Effects.Effect("unit-cap-kill", u.X, u.Y, 0, 0)
	u.Destroy(ctx)
}

// Despawn removes a core-spawned unit with only a cosmetic effect.
func (u *Unit) Despawn(ctx *Context) {
	if !u.added {
		return
	}
	ctx.Effects.Effect("spawn", u.X, u.Y, 0, 0)
	u.Remove(ctx)
}

// Destroy runs the death pipeline and unregisters the unit. Calls after the
// first are no-ops.
func (u *Unit) Destroy(ctx *Context) {
	if !u.added || u.destroying {
		return
	}
	u.destroying = true
	t := u.Type
	blast := u.Blast()
	item := u.stack.Item
	radius := u.Bounds() / 2

	if !u.SpawnedByCore {
		ctx.Combat.DynamicExplosion(Explosion{
			X:             u.X,
			Y:             u.Y,
			Flammability:  blast.Flammability,
			Explosiveness: blast.Explosiveness,
			Power:         blast.Power,
			Radius:        radius,
			Damage:        ctx.Rules.DamageExplosions,
			Fire:          item != nil && item.Flammability > 1,
			Team:          u.Team,
			Effect:        t.DeathExplosionEffect,
		})
	} else {
		ctx.Effects.Effect(t.DeathExplosionEffect, u.X, u.Y, 0, radius)
	}

	ctx.Effects.Scorch(u.X, u.Y, int(u.HitSize/5))
	ctx.Effects.Shake(u.HitSize/3, u.HitSize/3, u.X, u.Y)
	ctx.Effects.Sound(t.DeathSound, u.X, u.Y, 1)

	event.Emit(ctx.Bus, event.UnitDestroyed{
		UnitID:        u.ID,
		Team:          u.Team,
		Kind:          t.Name,
		X:             u.X,
		Y:             u.Y,
		SpawnedByCore: u.SpawnedByCore,
	})

	if blast.Explosiveness > notableExplosiveness && (u.IsLocal() || u.wasPlayer) {
		event.Emit(ctx.Bus, event.Trigger{Kind: event.TriggerSuicideBomb, UnitID: u.ID})
	}

	for _, m := range u.Mounts {
		if m.Weapon.ShootOnDeath && m.Weapon.Bullet != nil && !(m.Weapon.Bullet.KillShooter && m.Shoot) {
			m.Reload = 0
			m.Shoot = true
			u.updateMount(ctx, m, u.CanShoot())
		}
	}

	if t.Flying && !u.SpawnedByCore {
		ctx.Combat.AreaDamage(u.Team, u.X, u.Y,
			math.Pow(u.HitSize, 0.94)*1.25,
			math.Pow(u.HitSize, 0.75)*t.CrashDamageMultiplier*5,
			false, true)
	}

	if !ctx.Headless {
		for i, region := range t.WreckRegions {
			if i >= maxWrecks {
				break
			}
			r := u.HitSize / 4
			ctx.Effects.Decal(region, u.X+ctx.Range(r), u.Y+ctx.Range(r), u.Rotation-90)
		}
	}

	for _, a := range u.Abilities {
		a.Death(ctx, u)
	}

	u.Remove(ctx)
}
