package unit

import (
	"math"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/content"
)

// Heal restores health up to the maximum. Dead units never heal.
func (u *Unit) Heal(amount float64) {
	if u.dead || amount <= 0 {
		return
	}
	if u.health < u.maxHealth {
		u.wasHealed = true
	}
	u.health = math.Min(u.health+amount, u.maxHealth)
}

// Damage applies a hit: armor first, then shield, then health. Reaching
// zero health on the authority requests death.
func (u *Unit) Damage(ctx *Context, amount float64) {
	if amount <= 0 {
		return
	}
	amount = math.Max(amount-u.Armor, amount*minArmorDamage)
	u.absorb(ctx, amount/u.HealthMultiplier)
}

// DamagePierce applies damage that ignores armor.
func (u *Unit) DamagePierce(ctx *Context, amount float64) {
	if amount <= 0 {
		return
	}
	u.absorb(ctx, amount/u.HealthMultiplier)
}

// DamageContinuous applies amount per time unit.
func (u *Unit) DamageContinuous(ctx *Context, amount float64) {
	u.Damage(ctx, amount*ctx.Delta)
}

func (u *Unit) absorb(ctx *Context, amount float64) {
	if u.Type.Has(content.CapShield) && u.Shield > 0 {
		s := math.Min(u.Shield, amount)
		u.Shield -= s
		amount -= s
	}
	if amount <= 0 {
		return
	}
	u.health -= amount
	u.hitTime = 1
	if u.health <= 0 && !u.dead {
		u.Kill(ctx)
	}
}

// Kill requests death. Only the authority acts; the request is a UnitDeath
// call so every participant marks the unit dead in the same order.
func (u *Unit) Kill(ctx *Context) {
	if u.dead || u.deathIssued || !ctx.Authority {
		return
	}
	u.deathIssued = true
	ctx.Issue(call.UnitDeath{UnitID: u.ID})
}

// Killed marks the unit dead. Non-flying kinds are destroyed on the spot;
// flying kinds fall first and are destroyed once grounded.
func (u *Unit) Killed(ctx *Context) {
	if u.dead {
		return
	}
	u.wasPlayer = u.IsLocal()
	u.health = math.Min(u.health, 0)
	u.dead = true
	if !u.Type.Flying {
		u.Destroy(ctx)
	}
}

// ClampHealth keeps health within [-max, max].
func (u *Unit) ClampHealth() {
	u.health = math.Max(math.Min(u.health, u.maxHealth), -u.maxHealth)
}

// HealthFraction is health over max, clamped to [0, 1].
func (u *Unit) HealthFraction() float64 {
	if u.maxHealth <= 0 {
		return 0
	}
	return math.Max(0, math.Min(u.health/u.maxHealth, 1))
}

// HealPulse is the heal flash for effects: 1 right after a heal pulse is
// armed, fading to 0 over 20 ticks.
func (u *Unit) HealPulse() float64 { return math.Max(0, math.Min(u.healTime, 1)) }

// HitFlash fades from 1 to 0 over 9 ticks after health damage.
func (u *Unit) HitFlash() float64 { return math.Max(0, math.Min(u.hitTime, 1)) }

// Damaged reports whether the unit is below max health.
func (u *Unit) Damaged() bool { return u.health < u.maxHealth-0.001 }
