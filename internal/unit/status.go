package unit

import (
	"math"

	"github.com/l1jgo/skirmish/internal/content"
)

// StatusEntry is an active status effect and its remaining time.
type StatusEntry struct {
	Effect *content.StatusEffect
	Time   float64
}

// ApplyStatus applies effect for duration. Reapplying keeps the longer time.
// Immune kinds ignore the effect.
func (u *Unit) ApplyStatus(effect *content.StatusEffect, duration float64) {
	if effect == nil || u.dead || !u.Type.Has(content.CapStatus) || u.Type.Immunities[effect] {
		return
	}
	for i := range u.statuses {
		if u.statuses[i].Effect == effect {
			u.statuses[i].Time = math.Max(u.statuses[i].Time, duration)
			return
		}
	}
	u.statuses = append(u.statuses, StatusEntry{Effect: effect, Time: duration})
}

// HasStatus reports whether effect is active.
func (u *Unit) HasStatus(effect *content.StatusEffect) bool {
	for _, s := range u.statuses {
		if s.Effect == effect {
			return true
		}
	}
	return false
}

// Statuses returns the active effects.
func (u *Unit) Statuses() []StatusEntry { return u.statuses }

// ClearStatuses removes every effect.
func (u *Unit) ClearStatuses() { u.statuses = u.statuses[:0] }

// updateStatus recomputes the status multipliers, applies per-tick damage
// and expires effects.
func (u *Unit) updateStatus(ctx *Context) {
	u.SpeedMultiplier, u.DamageMultiplier, u.HealthMultiplier = 1, 1, 1
	u.ReloadMultiplier, u.DragMultiplier = 1, 1
	u.Disarmed = false
	if len(u.statuses) == 0 {
		return
	}
	kept := u.statuses[:0]
	for _, s := range u.statuses {
		s.Time -= ctx.Delta
		if s.Time <= 0 {
			continue
		}
		e := s.Effect
		u.SpeedMultiplier *= e.SpeedMultiplier
		u.DamageMultiplier *= e.DamageMultiplier
		u.HealthMultiplier *= e.HealthMultiplier
		u.Disarmed = u.Disarmed || e.Disarm
		switch {
		case e.Damage > 0:
			u.DamagePierce(ctx, e.Damage*ctx.Delta)
		case e.Damage < 0:
			u.Heal(-e.Damage * ctx.Delta)
		}
		kept = append(kept, s)
	}
	u.statuses = kept
	if u.HealthMultiplier <= 0 {
		u.HealthMultiplier = 0.0001
	}
}
