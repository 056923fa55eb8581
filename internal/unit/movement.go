package unit

import (
	"math"

	"github.com/l1jgo/skirmish/internal/content"
)

const formationSpeedFactor = 0.98

func dst(x1, y1, x2, y2 float64) float64 { return math.Hypot(x2-x1, y2-y1) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// angle returns the direction of (x, y) in degrees, [0, 360).
func angle(x, y float64) float64 {
	a := math.Atan2(y, x) * 180 / math.Pi
	if a < 0 {
		a += 360
	}
	return a
}

func angleDist(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// moveToward rotates from toward to by at most speed degrees, the short way.
func moveToward(from, to, speed float64) float64 {
	from = math.Mod(from+360, 360)
	to = math.Mod(to+360, 360)
	if angleDist(from, to) <= speed {
		return to
	}
	diff := to - from
	if diff > 180 || (diff < 0 && diff > -180) {
		speed = -speed
	}
	return math.Mod(from+speed+360, 360)
}

func approach(from, to, speed float64) float64 {
	if from < to {
		return math.Min(from+speed, to)
	}
	return math.Max(from-speed, to)
}

func trns(deg, length float64) (float64, float64) {
	r := deg * math.Pi / 180
	return math.Cos(r) * length, math.Sin(r) * length
}

func limit(x, y, max float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l > max && l > 0 {
		return x / l * max, y / l * max
	}
	return x, y
}

// Speed is the current top speed after formation, strafe, boost, floor and
// status modifiers.
func (u *Unit) Speed(ctx *Context) float64 {
	strafe := 1.0
	if !u.IsGrounded() && u.IsPlayer() {
		vx, vy := u.Velocity()
		strafe = lerp(1, u.Type.StrafePenalty, angleDist(angle(vx, vy), u.Rotation)/180)
	}
	boost := 1.0
	if u.Type.CanBoost {
		boost = lerp(1, u.Type.BoostMultiplier, u.Elevation)
	}
	base := u.Type.Speed
	if u.IsCommanding() {
		base = u.minFormationSpeed * formationSpeedFactor
	}
	return base * strafe * boost * u.floorSpeedMultiplier(ctx) * u.SpeedMultiplier
}

func (u *Unit) floorSpeedMultiplier(ctx *Context) float64 {
	if u.IsFlying() || u.Hovering {
		return 1
	}
	f := u.FloorOn(ctx)
	if f == nil {
		return 1
	}
	return f.SpeedMultiplier
}

// PrefRotation is the direction the unit wants to face: toward its build
// plan, its mine tile, or its direction of travel.
func (u *Unit) PrefRotation() float64 {
	switch {
	case u.ActivelyBuilding():
		return angle(float64(u.Plan.X*8)-u.X, float64(u.Plan.Y*8)-u.Y)
	case u.MineTile != nil:
		return angle(u.MineTile.WorldX()-u.X, u.MineTile.WorldY()-u.Y)
	case u.VelX != 0 || u.VelY != 0:
		return angle(u.VelX, u.VelY)
	}
	return u.Rotation
}

// LookAt turns toward angle at the kind's rotate speed.
func (u *Unit) LookAt(ctx *Context, a float64) {
	u.Rotation = moveToward(u.Rotation, a, u.Type.RotateSpeed*math.Max(ctx.Delta, 1)*u.SpeedMultiplier)
}

// LookAtPoint turns toward (x, y).
func (u *Unit) LookAtPoint(ctx *Context, x, y float64) {
	u.LookAt(ctx, angle(x-u.X, y-u.Y))
}

// AimLook aims every weapon at (x, y) and turns toward it.
func (u *Unit) AimLook(ctx *Context, x, y float64) {
	u.Aim(x, y)
	u.LookAtPoint(ctx, x, y)
}

// MoveAt accelerates toward velocity (vx, vy).
func (u *Unit) MoveAt(ctx *Context, vx, vy float64) {
	l := math.Hypot(vx, vy)
	dx, dy := limit(vx-u.VelX, vy-u.VelY, u.Type.Accel*l*ctx.Delta)
	u.VelX += dx
	u.VelY += dy
}

// Approach moves the velocity toward (vx, vy) at the kind's acceleration.
func (u *Unit) Approach(ctx *Context, vx, vy float64) {
	step := u.Type.Accel * u.Speed(ctx) * ctx.Delta
	dx, dy := limit(vx-u.VelX, vy-u.VelY, step)
	u.VelX += dx
	u.VelY += dy
}

// RotateMove turns toward (vx, vy) and moves along the current facing.
func (u *Unit) RotateMove(ctx *Context, vx, vy float64) {
	fx, fy := trns(u.Rotation, math.Hypot(vx, vy))
	u.MoveAt(ctx, fx, fy)
	if vx != 0 || vy != 0 {
		u.Rotation = moveToward(u.Rotation, angle(vx, vy), u.Type.RotateSpeed*math.Max(ctx.Delta, 1))
	}
}

// MovePref moves omni kinds directly and others by turning first.
func (u *Unit) MovePref(ctx *Context, vx, vy float64) {
	if u.Type.IsOmni() {
		u.MoveAt(ctx, vx, vy)
	} else {
		u.RotateMove(ctx, vx, vy)
	}
}

// updateElevation lifts flying and boosting kinds and reports landings.
func (u *Unit) updateElevation(ctx *Context) {
	if u.dead {
		return
	}
	switch {
	case u.Type.Flying:
		u.Elevation = approach(u.Elevation, 1, u.Type.RiseSpeed*ctx.Delta)
	case u.Type.CanBoost:
		onSolid := !u.CanPass(ctx, u.X, u.Y) || !u.CanLand(ctx)
		target := 0.0
		if u.Boosting || onSolid {
			target = 1
		}
		u.Elevation = approach(u.Elevation, target, u.Type.RiseSpeed*ctx.Delta)
	default:
		u.Elevation = 0
	}
	if u.wasFlying && u.IsGrounded() {
		u.behaviors.Landed(ctx, u)
	}
	u.wasFlying = u.IsFlying()
}

// integrate advances position by velocity, stopping grounded units at
// impassable tiles, and applies drag.
func (u *Unit) integrate(ctx *Context) {
	nx := u.X + u.VelX*ctx.Delta
	ny := u.Y + u.VelY*ctx.Delta
	if u.IsGrounded() && u.Type.Has(content.CapPhysics) {
		if !u.CanPass(ctx, nx, u.Y) {
			nx = u.X
			u.VelX = 0
		}
		if !u.CanPass(ctx, nx, ny) {
			ny = u.Y
			u.VelY = 0
		}
	}
	u.X, u.Y = nx, ny
	scale := math.Max(1-u.Drag*ctx.Delta, 0)
	u.VelX *= scale
	u.VelY *= scale
}
