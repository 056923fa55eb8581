package call

import (
	"errors"
	"fmt"

	"github.com/l1jgo/skirmish/internal/core/ecs"
	"github.com/l1jgo/skirmish/internal/net/packet"
)

// ErrUnknownOpcode is returned by Decode for a frame outside the closed set.
var ErrUnknownOpcode = errors.New("call: unknown opcode")

// Encode serialises a call as [opcode][fields].
func Encode(c Call) []byte {
	w := packet.NewWriterWithOpcode(byte(c.Op()))
	c.encode(w)
	return w.Bytes()
}

// Decode parses a frame produced by Encode.
func Decode(data []byte) (Call, error) {
	r := packet.NewReader(data)
	op := Opcode(r.ReadC())
	var c Call
	switch op {
	case OpSpawn:
		c = Spawn{
			UnitID:        ecs.EntityID(r.ReadL()),
			Kind:          int16(r.ReadH()),
			Team:          r.ReadC(),
			X:             r.ReadF64(),
			Y:             r.ReadF64(),
			Rotation:      r.ReadF64(),
			SpawnedByCore: r.ReadBool(),
		}
	case OpUnitDeath:
		c = UnitDeath{UnitID: ecs.EntityID(r.ReadL())}
	case OpUnitDestroy:
		c = UnitDestroy{UnitID: ecs.EntityID(r.ReadL())}
	case OpUnitCapDeath:
		c = UnitCapDeath{UnitID: ecs.EntityID(r.ReadL())}
	case OpUnitDespawn:
		c = UnitDespawn{UnitID: ecs.EntityID(r.ReadL())}
	case OpTransferAmmo:
		c = TransferAmmo{
			UnitID:     ecs.EntityID(r.ReadL()),
			BuildingID: r.ReadD(),
			Item:       int16(r.ReadH()),
			Amount:     r.ReadD(),
			Ammo:       r.ReadF64(),
		}
	case OpUnitControl:
		c = UnitControl{
			UnitID: ecs.EntityID(r.ReadL()),
			Player: r.ReadS(),
		}
	case OpUnitSync:
		id := ecs.EntityID(r.ReadL())
		n := int(r.ReadH())
		c = UnitSync{UnitID: id, Data: r.ReadBytes(n)}
	case OpCheckpoint:
		cp := Checkpoint{Tick: r.ReadL()}
		copy(cp.Digest[:], r.ReadBytes(len(cp.Digest)))
		c = cp
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, op)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", op, err)
	}
	return c, nil
}

func (c Spawn) encode(w *packet.Writer) {
	w.WriteL(uint64(c.UnitID))
	w.WriteH(uint16(c.Kind))
	w.WriteC(c.Team)
	w.WriteF64(c.X)
	w.WriteF64(c.Y)
	w.WriteF64(c.Rotation)
	w.WriteBool(c.SpawnedByCore)
}

func (c UnitDeath) encode(w *packet.Writer)    { w.WriteL(uint64(c.UnitID)) }
func (c UnitDestroy) encode(w *packet.Writer)  { w.WriteL(uint64(c.UnitID)) }
func (c UnitCapDeath) encode(w *packet.Writer) { w.WriteL(uint64(c.UnitID)) }
func (c UnitDespawn) encode(w *packet.Writer)  { w.WriteL(uint64(c.UnitID)) }

func (c TransferAmmo) encode(w *packet.Writer) {
	w.WriteL(uint64(c.UnitID))
	w.WriteD(c.BuildingID)
	w.WriteH(uint16(c.Item))
	w.WriteD(c.Amount)
	w.WriteF64(c.Ammo)
}

func (c UnitControl) encode(w *packet.Writer) {
	w.WriteL(uint64(c.UnitID))
	w.WriteS(c.Player)
}

func (c UnitSync) encode(w *packet.Writer) {
	w.WriteL(uint64(c.UnitID))
	w.WriteH(uint16(len(c.Data)))
	w.WriteBytes(c.Data)
}

func (c Checkpoint) encode(w *packet.Writer) {
	w.WriteL(c.Tick)
	w.WriteBytes(c.Digest[:])
}
