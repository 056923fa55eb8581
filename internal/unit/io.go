package unit

import (
	"errors"
	"fmt"
	"math"

	"github.com/l1jgo/skirmish/internal/core/ecs"
	"github.com/l1jgo/skirmish/internal/net/packet"
)

var (
	ErrUnknownKind        = errors.New("unit: unknown kind")
	ErrUnsupportedVersion = errors.New("unit: unsupported version")
	ErrCorrupt            = errors.New("unit: corrupt record")
)

// Version is the record layout written by Write.
//
//	1: kind, team, position, rotation, elevation, health, ammo, stack
//	2: + shield, spawned-by-core, status effects
//	3: + flag, weapon reloads
const Version = 3

const noItem = 0xffff

// Write appends the persistent record of u.
func (u *Unit) Write(w *packet.Writer) {
	w.WriteC(Version)
	w.WriteH(uint16(u.Type.ID))
	w.WriteC(u.Team)
	w.WriteF64(u.X)
	w.WriteF64(u.Y)
	w.WriteF64(u.Rotation)
	w.WriteF64(u.Elevation)
	w.WriteF64(u.health)
	w.WriteF64(u.Ammo)
	if u.stack.Empty() {
		w.WriteH(noItem)
		w.WriteD(0)
	} else {
		w.WriteH(uint16(u.stack.Item.ID))
		w.WriteD(int32(u.stack.Amount))
	}

	w.WriteF64(u.Shield)
	w.WriteBool(u.SpawnedByCore)
	w.WriteC(byte(min(len(u.statuses), math.MaxUint8)))
	for i, s := range u.statuses {
		if i == math.MaxUint8 {
			break
		}
		w.WriteH(uint16(s.Effect.ID))
		w.WriteF64(s.Time)
	}

	w.WriteF64(u.Flag)
	w.WriteC(byte(len(u.Mounts)))
	for _, m := range u.Mounts {
		w.WriteF64(m.Reload)
	}
}

// Read decodes a record written by any supported version into a new,
// unregistered unit. Items and statuses missing from the catalog are dropped
// and out-of-range values clamped; only an unknown kind, an unknown version
// or a truncated record is an error.
func Read(ctx *Context, r *packet.Reader, id ecs.EntityID) (*Unit, error) {
	version := r.ReadC()
	if r.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, r.Err())
	}
	if version < 1 || version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	kindID := int16(r.ReadH())
	tm := r.ReadC()
	x, y := r.ReadF64(), r.ReadF64()
	rot, elev := r.ReadF64(), r.ReadF64()
	health, ammo := r.ReadF64(), r.ReadF64()
	itemID, amount := r.ReadH(), r.ReadD()
	if r.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, r.Err())
	}
	kind := ctx.Content.UnitByID(kindID)
	if kind == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownKind, kindID)
	}

	u := New(ctx, id, kind, tm)
	u.X, u.Y, u.Rotation = x, y, rot
	u.Elevation = math.Max(0, math.Min(elev, 1))
	u.health = health
	u.ClampHealth()
	u.Ammo = math.Max(0, math.Min(ammo, kind.AmmoCapacity))
	if itemID != noItem {
		if it := ctx.Content.ItemByID(int16(itemID)); it != nil && amount > 0 {
			u.stack = Stack{Item: it, Amount: min(int(amount), u.ItemCapacity())}
		}
	}

	if version >= 2 {
		u.Shield = math.Max(r.ReadF64(), 0)
		u.SpawnedByCore = r.ReadBool()
		n := int(r.ReadC())
		for i := 0; i < n && r.Err() == nil; i++ {
			sid, left := int16(r.ReadH()), r.ReadF64()
			if s := ctx.Content.StatusByID(sid); s != nil && left > 0 {
				u.ApplyStatus(s, left)
			}
		}
	}
	if version >= 3 {
		u.Flag = r.ReadF64()
		n := int(r.ReadC())
		for i := 0; i < n && r.Err() == nil; i++ {
			reload := r.ReadF64()
			if i < len(u.Mounts) {
				u.Mounts[i].Reload = math.Max(reload, 0)
			}
		}
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, r.Err())
	}
	u.afterRead(ctx)
	return u, nil
}

// afterRead hands a loaded unit to its kind's default controller.
func (u *Unit) afterRead(ctx *Context) {
	u.ResetController(ctx)
}

// WriteSync appends the replicated state of u.
func (u *Unit) WriteSync(w *packet.Writer) {
	w.WriteF64(u.X)
	w.WriteF64(u.Y)
	w.WriteF64(u.VelX)
	w.WriteF64(u.VelY)
	w.WriteF64(u.Rotation)
	w.WriteF64(u.Elevation)
	w.WriteF64(u.health)
	w.WriteF64(u.Ammo)
	w.WriteF64(u.Shield)
	w.WriteF64(u.Flag)
	w.WriteBool(u.Boosting)
	if u.stack.Empty() {
		w.WriteH(noItem)
		w.WriteD(0)
	} else {
		w.WriteH(uint16(u.stack.Item.ID))
		w.WriteD(int32(u.stack.Amount))
	}
	w.WriteC(byte(len(u.Mounts)))
	for _, m := range u.Mounts {
		w.WriteF64(m.AimX)
		w.WriteF64(m.AimY)
		w.WriteBool(m.Shoot)
		w.WriteBool(m.Rotate)
	}
}

// ReadSync applies a WriteSync snapshot. Health of a dead unit is never
// raised and unknown items are dropped.
func (u *Unit) ReadSync(ctx *Context, r *packet.Reader) {
	u.X, u.Y = r.ReadF64(), r.ReadF64()
	u.VelX, u.VelY = r.ReadF64(), r.ReadF64()
	u.Rotation, u.Elevation = r.ReadF64(), r.ReadF64()
	health := r.ReadF64()
	if !u.dead || health < u.health {
		u.health = health
	}
	u.Ammo = r.ReadF64()
	u.Shield = r.ReadF64()
	u.Flag = r.ReadF64()
	u.Boosting = r.ReadBool()
	itemID, amount := r.ReadH(), int(r.ReadD())
	n := int(r.ReadC())
	for i := 0; i < n && r.Err() == nil; i++ {
		ax, ay := r.ReadF64(), r.ReadF64()
		shoot, rot := r.ReadBool(), r.ReadBool()
		if i < len(u.Mounts) {
			m := u.Mounts[i]
			m.AimX, m.AimY, m.Shoot, m.Rotate = ax, ay, shoot, rot
		}
	}
	if r.Err() != nil {
		return
	}
	u.syncStack(ctx, itemID, amount)
}

func (u *Unit) syncStack(ctx *Context, itemID uint16, amount int) {
	if itemID != noItem && amount > 0 {
		if it := ctx.Content.ItemByID(int16(itemID)); it != nil {
			u.stack = Stack{Item: it, Amount: min(amount, u.ItemCapacity())}
			return
		}
	}
	u.stack = Stack{}
}

// WriteIdentity appends the state that only changes through applied calls:
// id, kind, team, life flags and the carried stack. Host and replicas agree
// on it at every tick boundary.
func (u *Unit) WriteIdentity(w *packet.Writer) {
	w.WriteL(uint64(u.ID))
	w.WriteH(uint16(u.Type.ID))
	w.WriteC(u.Team)
	w.WriteBool(u.dead)
	w.WriteBool(u.SpawnedByCore)
	if u.stack.Empty() {
		w.WriteH(noItem)
		w.WriteD(0)
	} else {
		w.WriteH(uint16(u.stack.Item.ID))
		w.WriteD(int32(u.stack.Amount))
	}
}
