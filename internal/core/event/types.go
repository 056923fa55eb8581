package event

import "github.com/l1jgo/skirmish/internal/core/ecs"

// UnitCreated fires after a unit is registered with the session.
type UnitCreated struct {
	UnitID ecs.EntityID
	Team   uint8
	Kind   string
}

// UnitDestroyed fires once per unit from the death pipeline.
type UnitDestroyed struct {
	UnitID        ecs.EntityID
	Team          uint8
	Kind          string
	X, Y          float64
	SpawnedByCore bool
}

// TriggerKind names a gameplay trigger consumed by score/achievement hooks.
type TriggerKind uint8

const (
	// TriggerSuicideBomb fires when a locally controlled unit dies carrying
	// enough explosive cargo to be notable.
	TriggerSuicideBomb TriggerKind = iota + 1
)

// Trigger is a notable-destruction style event without a unit payload.
type Trigger struct {
	Kind   TriggerKind
	UnitID ecs.EntityID
}

// UnitControlChanged fires when a unit is handed to a different controller.
type UnitControlChanged struct {
	UnitID     ecs.EntityID
	Controller string
}

// DigestMismatch is raised on a replica whose state digest diverged from the host's.
type DigestMismatch struct {
	Tick     uint64
	Local    string
	Expected string
}
