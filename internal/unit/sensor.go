package unit

import (
	"math"

	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/world"
)

// Sensor is a queryable property of a unit.
type Sensor uint8

const (
	SensorTotalItems Sensor = iota
	SensorFirstItem
	SensorItemCapacity
	SensorRotation
	SensorHealth
	SensorMaxHealth
	SensorAmmo
	SensorAmmoCapacity
	SensorX
	SensorY
	SensorDead
	SensorTeam
	SensorShooting
	SensorBoosting
	SensorRange
	SensorShootX
	SensorShootY
	SensorMining
	SensorMineX
	SensorMineY
	SensorFlag
	SensorControlled
	SensorCommanded
	SensorPayloadCount
	SensorPayloadType
	SensorSize
	SensorType
	SensorName
	SensorController
	SensorShield
	sensorCount
)

var sensorNames = [sensorCount]string{
	"totalItems", "firstItem", "itemCapacity", "rotation", "health", "maxHealth",
	"ammo", "ammoCapacity", "x", "y", "dead", "team", "shooting", "boosting",
	"range", "shootX", "shootY", "mining", "mineX", "mineY", "flag",
	"controlled", "commanded", "payloadCount", "payloadType", "size", "type",
	"name", "controller", "shield",
}

func (s Sensor) String() string {
	if s < sensorCount {
		return sensorNames[s]
	}
	return "unknown"
}

// ParseSensor looks a sensor up by name.
func ParseSensor(name string) (Sensor, bool) {
	for i, n := range sensorNames {
		if n == name {
			return Sensor(i), true
		}
	}
	return 0, false
}

// Control classification codes reported by SensorControlled.
const (
	CtrlCodeProcessor = 1
	CtrlCodePlayer    = 2
	CtrlCodeFormation = 3
)

// noSensed is returned by SenseObject for sensors with no object value.
type noSensed struct{}

// NoSensed is the "no value" sentinel of SenseObject.
var NoSensed any = noSensed{}

func bool01(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Sense answers a numeric sensor query. Unknown sensors yield NaN.
func (u *Unit) Sense(ctx *Context, s Sensor) float64 {
	switch s {
	case SensorTotalItems:
		return float64(u.stack.Amount)
	case SensorItemCapacity:
		return float64(u.ItemCapacity())
	case SensorRotation:
		return u.Rotation
	case SensorHealth:
		return u.health
	case SensorMaxHealth:
		return u.maxHealth
	case SensorAmmo:
		if !ctx.Rules.UnitAmmo {
			return u.Type.AmmoCapacity
		}
		return u.Ammo
	case SensorAmmoCapacity:
		return u.Type.AmmoCapacity
	case SensorX:
		return world.Conv(u.X)
	case SensorY:
		return world.Conv(u.Y)
	case SensorDead:
		return bool01(u.dead || !u.added)
	case SensorTeam:
		return float64(u.Team)
	case SensorShooting:
		return bool01(u.IsShooting())
	case SensorBoosting:
		return bool01(u.Type.CanBoost && u.IsFlying())
	case SensorRange:
		return world.Conv(u.Range())
	case SensorShootX:
		x, _ := u.AimPoint()
		return world.Conv(x)
	case SensorShootY:
		_, y := u.AimPoint()
		return world.Conv(y)
	case SensorMining:
		return bool01(u.Mining())
	case SensorMineX:
		if u.Mining() {
			return float64(u.MineTile.X)
		}
		return -1
	case SensorMineY:
		if u.Mining() {
			return float64(u.MineTile.Y)
		}
		return -1
	case SensorFlag:
		return u.Flag
	case SensorControlled:
		return float64(u.controlCode())
	case SensorCommanded:
		_, ok := u.controller.(*FormationAI)
		return bool01(ok && u.controller.IsValid())
	case SensorPayloadCount:
		return float64(len(u.Payloads))
	case SensorSize:
		return world.Conv(u.HitSize)
	case SensorShield:
		return u.Shield
	}
	return math.NaN()
}

func (u *Unit) controlCode() int {
	if !u.IsValid() || u.controller == nil || !u.controller.IsValid() {
		return 0
	}
	switch u.controller.(type) {
	case *LogicAI:
		return CtrlCodeProcessor
	case *Player:
		return CtrlCodePlayer
	case *FormationAI:
		return CtrlCodeFormation
	}
	return 0
}

// SenseObject answers an object sensor query. Sensors without an object
// value yield NoSensed.
func (u *Unit) SenseObject(s Sensor) any {
	switch s {
	case SensorType:
		return u.Type
	case SensorName:
		if p, ok := u.controller.(*Player); ok {
			return p.PlayerName
		}
		return nil
	case SensorFirstItem:
		if u.stack.Empty() {
			return nil
		}
		return u.stack.Item
	case SensorController:
		if u.controller == nil || !u.controller.IsValid() {
			return nil
		}
		switch c := u.controller.(type) {
		case *LogicAI:
			return c.Program
		case *FormationAI:
			return c.Leader
		}
		return u
	case SensorPayloadType:
		if len(u.Payloads) == 0 {
			return nil
		}
		return u.Payloads[0].Content()
	}
	return NoSensed
}

// SenseContent reports how much of a piece of content the unit holds.
func (u *Unit) SenseContent(c any) float64 {
	if it, ok := c.(*content.Item); ok && u.stack.Item == it {
		return float64(u.stack.Amount)
	}
	return math.NaN()
}
