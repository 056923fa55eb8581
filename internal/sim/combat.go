package sim

import (
	"math"

	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/team"
	"github.com/l1jgo/skirmish/internal/unit"
	"github.com/l1jgo/skirmish/internal/world"
)

const (
	maxExplosionWaves  = 25
	maxExplosionRadius = 50
	// defaultBulletSize is the collision radius of bullets without one.
	defaultBulletSize = 4
)

// Bullet is one live projectile.
type Bullet struct {
	Type   *content.Bullet
	Team   team.ID
	X, Y   float64
	VelX   float64
	VelY   float64
	Life   float64
	Damage float64
}

// Combat resolves explosions, area damage and bullets against the session's
// units and buildings. Buildings only take damage on the host; their state is
// not replicated.
type Combat struct {
	s       *Session
	bullets []*Bullet
}

var _ unit.Combat = (*Combat)(nil)

func newCombat(s *Session) *Combat {
	return &Combat{s: s, bullets: make([]*Bullet, 0, 128)}
}

// Bullets returns the live projectiles.
func (c *Combat) Bullets() []*Bullet { return c.bullets }

// DynamicExplosion damages the area around a destroyed carrier in expanding
// waves scaled by its explosiveness, then adds fire and power discharge.
func (c *Combat) DynamicExplosion(e unit.Explosion) {
	ctx := c.s.ctx
	if e.Effect != "" {
		ctx.Effects.Effect(e.Effect, e.X, e.Y, 0, e.Radius)
	}
	if !e.Damage {
		return
	}
	if e.Explosiveness > 2 {
		waves := clamp(int(e.Explosiveness/11), 1, maxExplosionWaves)
		radius := math.Min(math.Max(e.Radius+e.Explosiveness, 0), maxExplosionRadius) * (e.Flammability/10 + 1)
		for i := 0; i < waves; i++ {
			c.AreaDamage(e.Team, e.X, e.Y, radius*float64(i+1)/float64(waves), e.Explosiveness/2, true, true)
		}
	}
	if e.Power > 0 {
		c.AreaDamage(e.Team, e.X, e.Y, e.Radius+math.Sqrt(e.Power), e.Power/50, true, true)
	}
	if e.Fire && e.Flammability > 0 {
		fires := clamp(int(e.Flammability/4), 1, 20)
		for i := 0; i < fires; i++ {
			ctx.Effects.Effect("fire", e.X+ctx.Range(e.Radius), e.Y+ctx.Range(e.Radius), 0, 0)
		}
	}
}

// AreaDamage hurts every hostile of t within radius with linear falloff to
// 40% at the edge. air and ground select which units are hit.
func (c *Combat) AreaDamage(t team.ID, x, y, radius, damage float64, air, ground bool) {
	if radius <= 0 || damage <= 0 {
		return
	}
	ctx := c.s.ctx
	var hit []*unit.Unit
	c.s.index.EachWithin(x, y, radius, func(u *unit.Unit) {
		if team.IsAlly(t, u.Team) {
			return
		}
		if (u.IsFlying() && !air) || (!u.IsFlying() && !ground) {
			return
		}
		hit = append(hit, u)
	})
	for _, u := range hit {
		d := math.Hypot(u.X-x, u.Y-y)
		u.Damage(ctx, damage*falloff(d, radius))
	}
	if ground && ctx.Authority {
		for _, b := range c.buildingsWithin(x, y, radius) {
			if team.IsAlly(t, b.Team) {
				continue
			}
			c.damageBuilding(b, damage*falloff(math.Hypot(b.X()-x, b.Y()-y), radius))
		}
	}
}

// CreateBullet launches a projectile from (x, y) toward angle in degrees.
func (c *Combat) CreateBullet(owner *unit.Unit, b *content.Bullet, x, y, angle float64) {
	if b == nil {
		return
	}
	rad := angle * math.Pi / 180
	dmg := b.Damage
	if owner != nil {
		dmg *= owner.DamageMultiplier
	}
	var tm team.ID
	if owner != nil {
		tm = owner.Team
	}
	c.bullets = append(c.bullets, &Bullet{
		Type:   b,
		Team:   tm,
		X:      x,
		Y:      y,
		VelX:   math.Cos(rad) * b.Speed,
		VelY:   math.Sin(rad) * b.Speed,
		Life:   b.Lifetime,
		Damage: dmg,
	})
}

// UpdateBullets moves every bullet, resolves the first hit and expires
// spent ones. Bullets created during the pass start moving next tick.
func (c *Combat) UpdateBullets(delta float64) {
	ctx := c.s.ctx
	live := c.bullets[:0]
	n := len(c.bullets)
	for i := 0; i < n; i++ {
		b := c.bullets[i]
		b.X += b.VelX * delta
		b.Y += b.VelY * delta
		b.Life -= delta

		if target := c.collide(b); target != nil {
			target.Damage(ctx, b.Damage)
			c.splash(b)
			continue
		}
		if b.Life <= 0 || c.s.opts.Grid.TileAt(b.X, b.Y) == nil {
			c.splash(b)
			continue
		}
		if t := c.s.opts.Grid.TileAt(b.X, b.Y); t.Build != nil && !team.IsAlly(b.Team, t.Build.Team) {
			if ctx.Authority {
				c.damageBuilding(t.Build, b.Damage)
			}
			c.splash(b)
			continue
		}
		live = append(live, b)
	}
	live = append(live, c.bullets[n:]...)
	clear(c.bullets[len(live):])
	c.bullets = live
}

func (c *Combat) collide(b *Bullet) *unit.Unit {
	size := b.Type.HitSize
	if size <= 0 {
		size = defaultBulletSize
	}
	var hit *unit.Unit
	c.s.index.EachWithin(b.X, b.Y, size+maxUnitRadius, func(u *unit.Unit) {
		if hit != nil || team.IsAlly(b.Team, u.Team) {
			return
		}
		if math.Hypot(u.X-b.X, u.Y-b.Y) <= size+u.HitSize/2 {
			hit = u
		}
	})
	return hit
}

// maxUnitRadius widens bullet collision queries so large units are found.
const maxUnitRadius = 40

func (c *Combat) splash(b *Bullet) {
	if b.Type.SplashDamage > 0 && b.Type.SplashRadius > 0 {
		c.AreaDamage(b.Team, b.X, b.Y, b.Type.SplashRadius, b.Type.SplashDamage, true, true)
	}
}

func (c *Combat) buildingsWithin(x, y, r float64) []*world.Building {
	var out []*world.Building
	for _, b := range c.s.opts.Grid.Buildings() {
		if math.Hypot(b.X()-x, b.Y()-y) <= r {
			out = append(out, b)
		}
	}
	return out
}

func (c *Combat) damageBuilding(b *world.Building, amount float64) {
	if b.Health <= 0 {
		return
	}
	b.Health -= amount
	if b.Health > 0 {
		return
	}
	c.s.log.Info("building destroyed",
		zap.Int32("building", b.ID),
		zap.String("block", b.Block.Name),
		zap.Uint8("team", b.Team))
	if b.Block.Core {
		c.s.ctx.Teams.RemoveCore(b.Team, b.Block)
	}
	c.s.ctx.Effects.Effect("block-explosion", b.X(), b.Y(), 0, 0)
	c.s.opts.Grid.SetBlock(b.TileX, b.TileY, nil, 0)
}

func falloff(d, r float64) float64 {
	t := 1 - d/r
	if t < 0 {
		t = 0
	}
	return 0.4 + (1-0.4)*t
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
