package content

import (
	"fmt"
	"strings"
)

// Capability is one orthogonal behavior contract a unit kind can declare.
// A kind's set is a bitmask; Has checks membership.
type Capability uint32

const (
	CapHealth Capability = 1 << iota
	CapPhysics
	CapTeam
	CapItems
	CapRotation
	CapWeapons
	CapDraw
	CapBounded
	CapSync
	CapShield
	CapStatus
	CapSensors
	CapMiner
	CapBuilder
	CapCommander
	CapPayload
)

// CapDefault is the set every kind gets when it declares none.
const CapDefault = CapHealth | CapPhysics | CapTeam | CapItems | CapRotation |
	CapWeapons | CapDraw | CapBounded | CapSync | CapShield | CapStatus |
	CapSensors | CapMiner | CapBuilder | CapCommander

var capNames = map[string]Capability{
	"health":    CapHealth,
	"physics":   CapPhysics,
	"team":      CapTeam,
	"items":     CapItems,
	"rotation":  CapRotation,
	"weapons":   CapWeapons,
	"draw":      CapDraw,
	"bounded":   CapBounded,
	"sync":      CapSync,
	"shield":    CapShield,
	"status":    CapStatus,
	"sensors":   CapSensors,
	"miner":     CapMiner,
	"builder":   CapBuilder,
	"commander": CapCommander,
	"payload":   CapPayload,
}

func (c Capability) Has(o Capability) bool { return c&o == o }

// ParseCapabilities resolves capability names. "default" expands to
// CapDefault so kinds can write [default, payload].
func ParseCapabilities(names []string) (Capability, error) {
	if len(names) == 0 {
		return CapDefault, nil
	}
	var c Capability
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "default" {
			c |= CapDefault
			continue
		}
		v, ok := capNames[n]
		if !ok {
			return 0, fmt.Errorf("unknown capability %q", n)
		}
		c |= v
	}
	return c, nil
}
