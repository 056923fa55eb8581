package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain player intents and replica frames
	PhaseApply                   // 1: apply remote invocations in arrival order
	PhasePreUpdate               // 2: dispatch last tick's events
	PhaseUpdate                  // 3: unit update loop
	PhasePostUpdate              // 4: bullets, sync, digest
	PhasePersist                 // 5: snapshot + event log flush
	PhaseCleanup                 // 6: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseApply:
		return "apply"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
