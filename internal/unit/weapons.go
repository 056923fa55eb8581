package unit

import (
	"math"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/world"
)

// WeaponMount is the per-unit state of one weapon slot.
type WeaponMount struct {
	Weapon   *content.Weapon
	Reload   float64
	Rotation float64
	AimX     float64
	AimY     float64
	Shoot    bool
	Rotate   bool
}

func (u *Unit) setupWeapons() {
	u.Mounts = u.Mounts[:0]
	for _, w := range u.Type.Weapons {
		u.Mounts = append(u.Mounts, &WeaponMount{Weapon: w})
	}
}

func (u *Unit) WeaponMounts() []*WeaponMount { return u.Mounts }

// Aim points every mount at (x, y).
func (u *Unit) Aim(x, y float64) {
	for _, m := range u.Mounts {
		m.AimX, m.AimY = x, y
	}
}

// ControlWeapons sets the rotate and shoot intent of every mount.
func (u *Unit) ControlWeapons(rotate, shoot bool) {
	for _, m := range u.Mounts {
		m.Rotate = rotate
		m.Shoot = shoot
	}
}

// IsShooting reports whether any mount wants to fire.
func (u *Unit) IsShooting() bool {
	for _, m := range u.Mounts {
		if m.Shoot {
			return true
		}
	}
	return false
}

// AimPoint returns the aim of the first mount, or the unit's position.
func (u *Unit) AimPoint() (float64, float64) {
	if len(u.Mounts) == 0 {
		return u.X, u.Y
	}
	return u.Mounts[0].AimX, u.Mounts[0].AimY
}

// AmmoFraction is ammo over capacity.
func (u *Unit) AmmoFraction() float64 {
	return u.Ammo / u.Type.AmmoCapacity
}

func (u *Unit) updateWeapons(ctx *Context) {
	can := u.CanShoot()
	for _, m := range u.Mounts {
		u.updateMount(ctx, m, can)
	}
}

func (u *Unit) updateMount(ctx *Context, m *WeaponMount, can bool) {
	w := m.Weapon
	m.Reload = math.Max(m.Reload-ctx.Delta*u.ReloadMultiplier, 0)
	if w.Rotate && m.Rotate {
		target := angle(m.AimX-u.X, m.AimY-u.Y) - u.Rotation
		m.Rotation = moveToward(m.Rotation, target, w.RotateSpeed*ctx.Delta)
	} else if !w.Rotate {
		m.Rotation = 0
	}
	if !m.Shoot || !can || m.Reload > 0 || w.Bullet == nil {
		return
	}
	if ctx.Rules.UnitAmmo && u.Ammo <= 0 {
		return
	}
	u.fire(ctx, m)
}

func (u *Unit) fire(ctx *Context, m *WeaponMount) {
	w := m.Weapon
	ox, oy := trns(u.Rotation-90, w.X)
	fx, fy := trns(u.Rotation, w.Y)
	x, y := u.X+ox+fx, u.Y+oy+fy
	m.Reload = w.Reload
	if ctx.Rules.UnitAmmo {
		u.Ammo = math.Max(u.Ammo-w.AmmoPerShot, 0)
	}
	ctx.Combat.CreateBullet(u, w.Bullet, x, y, u.Rotation+m.Rotation)
	if w.Bullet.KillShooter {
		u.Kill(ctx)
	}
}

// requestResupply asks the nearest allied core holding the ammo item for
// one item's worth of ammo.
func (u *Unit) requestResupply(ctx *Context) {
	p := u.Type.Ammo
	if p.Kind != content.AmmoItem || p.Item == nil {
		return
	}
	if u.Type.AmmoCapacity-u.Ammo < p.PerItem {
		return
	}
	b := ctx.World.ClosestBuilding(u.X, u.Y, p.Range+u.HitSize, func(b *world.Building) bool {
		return b.Team == u.Team && b.Block.Core && b.Has(p.Item)
	})
	if b == nil {
		return
	}
	ctx.Issue(call.TransferAmmo{
		UnitID:     u.ID,
		BuildingID: b.ID,
		Item:       p.Item.ID,
		Amount:     1,
		Ammo:       p.PerItem,
	})
}

// ApplyTransferAmmo takes the items out of b and converts them to ammo.
func (u *Unit) ApplyTransferAmmo(b *world.Building, item *content.Item, amount int, ammo float64) {
	if b == nil || item == nil {
		return
	}
	if got := b.RemoveItem(item, amount); got > 0 {
		u.Ammo = math.Min(u.Ammo+ammo*float64(got)/float64(amount), u.Type.AmmoCapacity)
	}
}
