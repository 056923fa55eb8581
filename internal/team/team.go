// Package team keeps per-team bookkeeping: live unit counts per kind and the
// population cap derived from the ruleset and the team's cores.
package team

import (
	"math"

	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/rules"
)

// ID identifies a team. Team 0 is derelict.
type ID = uint8

const Derelict ID = 0

type countKey struct {
	team ID
	kind int16
}

// Registry tracks live counts and core cap modifiers. Game-loop goroutine only.
type Registry struct {
	rules  *rules.Rules
	counts map[countKey]int
	totals map[ID]int
	capMod map[ID]int
}

func NewRegistry(r *rules.Rules) *Registry {
	return &Registry{
		rules:  r,
		counts: make(map[countKey]int),
		totals: make(map[ID]int),
		capMod: make(map[ID]int),
	}
}

// UpdateCount adds delta to the (team, kind) live count. Counts never go
// below zero; a decrement past zero is absorbed and reported as false so the
// caller can log the accounting fault.
func (r *Registry) UpdateCount(team ID, kind *content.UnitType, delta int) bool {
	if kind == nil {
		return false
	}
	k := countKey{team: team, kind: kind.ID}
	next := r.counts[k] + delta
	ok := next >= 0
	if !ok {
		delta -= next
		next = 0
	}
	if next == 0 {
		delete(r.counts, k)
	} else {
		r.counts[k] = next
	}
	r.totals[team] += delta
	if r.totals[team] <= 0 {
		delete(r.totals, team)
	}
	return ok
}

// CountType returns the live count of kind on team.
func (r *Registry) CountType(team ID, kind *content.UnitType) int {
	if kind == nil {
		return 0
	}
	return r.counts[countKey{team: team, kind: kind.ID}]
}

// Total returns the live count of all kinds on team.
func (r *Registry) Total(team ID) int {
	return r.totals[team]
}

// AddCore registers a core block's cap modifier for team.
func (r *Registry) AddCore(team ID, b *content.Block) {
	if b != nil && b.Core {
		r.capMod[team] += b.UnitCapModifier
	}
}

// RemoveCore undoes AddCore.
func (r *Registry) RemoveCore(team ID, b *content.Block) {
	if b != nil && b.Core {
		r.capMod[team] -= b.UnitCapModifier
	}
}

// Cap returns the per-kind population limit for team. The wave team is
// uncapped outside PvP.
func (r *Registry) Cap(team ID) int {
	if team == r.rules.WaveTeam && !r.rules.PvP {
		return math.MaxInt32
	}
	c := r.rules.UnitCap
	if r.rules.UnitCapVariable {
		c += r.capMod[team]
	}
	if c < 0 {
		return 0
	}
	return c
}

// IsAlly reports whether a and b fight on the same side.
func IsAlly(a, b ID) bool { return a == b }
