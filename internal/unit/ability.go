package unit

import (
	"math"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/content"
)

// Ability is a per-unit behavior instantiated from a kind's template.
type Ability interface {
	Update(ctx *Context, u *Unit)
	Death(ctx *Context, u *Unit)
	Template() *content.AbilityTemplate
}

func (u *Unit) setupAbilities() {
	u.Abilities = u.Abilities[:0]
	for i := range u.Type.Abilities {
		if a := newAbility(&u.Type.Abilities[i]); a != nil {
			u.Abilities = append(u.Abilities, a)
		}
	}
}

func newAbility(t *content.AbilityTemplate) Ability {
	switch t.Kind {
	case content.AbilityRegen:
		return &regenAbility{tmpl: t}
	case content.AbilityShieldRegen:
		return &shieldRegenAbility{tmpl: t}
	case content.AbilityStatusField:
		return &statusFieldAbility{tmpl: t}
	case content.AbilitySpawnDeath:
		return &spawnDeathAbility{tmpl: t}
	}
	return nil
}

type regenAbility struct{ tmpl *content.AbilityTemplate }

func (a *regenAbility) Template() *content.AbilityTemplate { return a.tmpl }
func (a *regenAbility) Death(*Context, *Unit)             {}

func (a *regenAbility) Update(ctx *Context, u *Unit) {
	u.Heal(a.tmpl.Amount * ctx.Delta)
}

type shieldRegenAbility struct {
	tmpl  *content.AbilityTemplate
	timer float64
}

func (a *shieldRegenAbility) Template() *content.AbilityTemplate { return a.tmpl }
func (a *shieldRegenAbility) Death(*Context, *Unit)             {}

func (a *shieldRegenAbility) Update(ctx *Context, u *Unit) {
	a.timer += ctx.Delta
	if a.timer < a.tmpl.Reload {
		return
	}
	a.timer = 0
	if u.Shield < a.tmpl.Max {
		u.Shield = math.Min(u.Shield+a.tmpl.Amount, a.tmpl.Max)
	}
}

type statusFieldAbility struct {
	tmpl  *content.AbilityTemplate
	timer float64
}

func (a *statusFieldAbility) Template() *content.AbilityTemplate { return a.tmpl }
func (a *statusFieldAbility) Death(*Context, *Unit)             {}

func (a *statusFieldAbility) Update(ctx *Context, u *Unit) {
	a.timer += ctx.Delta
	if a.timer < a.tmpl.Reload {
		return
	}
	a.timer = 0
	ctx.World.EachWithin(u.X, u.Y, a.tmpl.Range, func(o *Unit) {
		if o.Team == u.Team {
			o.ApplyStatus(a.tmpl.Status, a.tmpl.Duration)
		}
	})
}

type spawnDeathAbility struct{ tmpl *content.AbilityTemplate }

func (a *spawnDeathAbility) Template() *content.AbilityTemplate { return a.tmpl }
func (a *spawnDeathAbility) Update(*Context, *Unit)            {}

// Death spawns the configured offspring around the wreck. The host fills in
// the unit ids when it applies the call.
func (a *spawnDeathAbility) Death(ctx *Context, u *Unit) {
	kind := ctx.Content.Unit(a.tmpl.SpawnKind)
	if kind == nil {
		return
	}
	for i := 0; i < a.tmpl.SpawnCount; i++ {
		ctx.Issue(call.Spawn{
			Kind:     kind.ID,
			Team:     u.Team,
			X:        u.X + ctx.Range(a.tmpl.Range),
			Y:        u.Y + ctx.Range(a.tmpl.Range),
			Rotation: u.Rotation,
		})
	}
}
