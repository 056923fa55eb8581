package unit

import "math"

// formationSpacing is the gap between formation slots in world units.
const formationSpacing = 4

// Command puts members under this unit's lead in a ring formation. Members
// on other teams, dead members and the leader itself are skipped.
func (u *Unit) Command(ctx *Context, members []*Unit) {
	u.ClearCommand(ctx)
	slowest := u.Type.Speed
	var picked []*Unit
	for _, m := range members {
		if m == u || !m.IsValid() || m.Team != u.Team {
			continue
		}
		picked = append(picked, m)
	}
	for i, m := range picked {
		radius := u.HitSize + m.HitSize + formationSpacing
		a := float64(i) / float64(len(picked)) * 2 * math.Pi
		m.SetController(ctx, NewFormationAI(u, -math.Cos(a)*radius, math.Sin(a)*radius))
		u.controlling = append(u.controlling, m)
		slowest = math.Min(slowest, m.Type.Speed)
	}
	u.minFormationSpeed = slowest
}

// ClearCommand releases every member back to its default controller.
func (u *Unit) ClearCommand(ctx *Context) {
	members := u.controlling
	u.controlling = nil
	for _, m := range members {
		if f, ok := m.controller.(*FormationAI); ok && f.Leader == u {
			m.ResetController(ctx)
		}
	}
	u.minFormationSpeed = 0
}

// IsCommanding reports whether any unit follows this one.
func (u *Unit) IsCommanding() bool { return len(u.controlling) > 0 }

// Controlling returns the units in formation behind this one.
func (u *Unit) Controlling() []*Unit { return u.controlling }

func (u *Unit) dropMember(m *Unit) {
	for i, c := range u.controlling {
		if c == m {
			u.controlling = append(u.controlling[:i], u.controlling[i+1:]...)
			return
		}
	}
}

// updateCommander forgets members that died or were taken over.
func (u *Unit) updateCommander() {
	if len(u.controlling) == 0 {
		return
	}
	kept := u.controlling[:0]
	slowest := u.Type.Speed
	for _, m := range u.controlling {
		if f, ok := m.controller.(*FormationAI); ok && f.Leader == u && !m.dead {
			kept = append(kept, m)
			slowest = math.Min(slowest, m.Type.Speed)
		}
	}
	u.controlling = kept
	u.minFormationSpeed = slowest
}
