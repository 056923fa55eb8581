// Package call defines remote invocations: commands decided by the
// authoritative host and applied, in issue order, by the host and every
// replica. The set is closed; Decode rejects unknown opcodes.
package call

import (
	"github.com/l1jgo/skirmish/internal/core/ecs"
	"github.com/l1jgo/skirmish/internal/net/packet"
)

// Opcode is the first byte of every encoded call.
type Opcode byte

const (
	OpSpawn Opcode = iota + 1
	OpUnitDeath
	OpUnitDestroy
	OpUnitCapDeath
	OpUnitDespawn
	OpTransferAmmo
	OpUnitControl
	OpUnitSync
	OpCheckpoint
)

func (o Opcode) String() string {
	switch o {
	case OpSpawn:
		return "spawn"
	case OpUnitDeath:
		return "unit-death"
	case OpUnitDestroy:
		return "unit-destroy"
	case OpUnitCapDeath:
		return "unit-cap-death"
	case OpUnitDespawn:
		return "unit-despawn"
	case OpTransferAmmo:
		return "transfer-ammo"
	case OpUnitControl:
		return "unit-control"
	case OpUnitSync:
		return "unit-sync"
	case OpCheckpoint:
		return "checkpoint"
	}
	return "unknown"
}

// Call is one remote invocation.
type Call interface {
	Op() Opcode
	encode(w *packet.Writer)
}

// Spawn creates a unit with a host-chosen id.
type Spawn struct {
	UnitID        ecs.EntityID
	Kind          int16
	Team          uint8
	X, Y          float64
	Rotation      float64
	SpawnedByCore bool
}

// UnitDeath marks a unit dead (the synced half of kill).
type UnitDeath struct{ UnitID ecs.EntityID }

// UnitDestroy runs the death pipeline.
type UnitDestroy struct{ UnitID ecs.EntityID }

// UnitCapDeath force-destroys a unit that is over the population cap or in
// an unsupported environment.
type UnitCapDeath struct{ UnitID ecs.EntityID }

// UnitDespawn removes a unit without a death explosion.
type UnitDespawn struct{ UnitID ecs.EntityID }

// TransferAmmo moves one resupply worth of items from a building into a
// unit's ammo.
type TransferAmmo struct {
	UnitID     ecs.EntityID
	BuildingID int32
	Item       int16
	Amount     int32
	Ammo       float64
}

// UnitControl hands a unit to a player by name, or back to its kind's
// default controller when Player is empty. Each participant decides for
// itself whether the named player is local.
type UnitControl struct {
	UnitID ecs.EntityID
	Player string
}

// UnitSync carries the sync capability snapshot of one unit.
type UnitSync struct {
	UnitID ecs.EntityID
	Data   []byte
}

// Checkpoint publishes the host's state digest for a tick.
type Checkpoint struct {
	Tick   uint64
	Digest [32]byte
}

func (Spawn) Op() Opcode        { return OpSpawn }
func (UnitDeath) Op() Opcode    { return OpUnitDeath }
func (UnitDestroy) Op() Opcode  { return OpUnitDestroy }
func (UnitCapDeath) Op() Opcode { return OpUnitCapDeath }
func (UnitDespawn) Op() Opcode  { return OpUnitDespawn }
func (TransferAmmo) Op() Opcode { return OpTransferAmmo }
func (UnitControl) Op() Opcode  { return OpUnitControl }
func (UnitSync) Op() Opcode     { return OpUnitSync }
func (Checkpoint) Op() Opcode   { return OpCheckpoint }
