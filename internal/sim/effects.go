package sim

import (
	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/unit"
)

// LogEffects reports cosmetic output at debug level. A headless host has no
// renderer, so this is where effects end up.
type LogEffects struct {
	log *zap.Logger
}

var _ unit.Effects = (*LogEffects)(nil)

func NewLogEffects(log *zap.Logger) *LogEffects {
	return &LogEffects{log: log.Named("fx")}
}

func (e *LogEffects) Effect(name string, x, y, rotation, data float64) {
	if ce := e.log.Check(zap.DebugLevel, "effect"); ce != nil {
		ce.Write(zap.String("name", name), zap.Float64("x", x), zap.Float64("y", y))
	}
}

func (e *LogEffects) Shake(intensity, duration, x, y float64) {
	if ce := e.log.Check(zap.DebugLevel, "shake"); ce != nil {
		ce.Write(zap.Float64("intensity", intensity), zap.Float64("duration", duration))
	}
}

func (e *LogEffects) Scorch(x, y float64, size int) {
	if ce := e.log.Check(zap.DebugLevel, "scorch"); ce != nil {
		ce.Write(zap.Float64("x", x), zap.Float64("y", y), zap.Int("size", size))
	}
}

func (e *LogEffects) Sound(name string, x, y, volume float64) {
	if ce := e.log.Check(zap.DebugLevel, "sound"); ce != nil {
		ce.Write(zap.String("name", name), zap.Float64("volume", volume))
	}
}

func (e *LogEffects) Decal(region string, x, y, rotation float64) {
	if ce := e.log.Check(zap.DebugLevel, "decal"); ce != nil {
		ce.Write(zap.String("region", region), zap.Float64("x", x), zap.Float64("y", y))
	}
}
