// Package rules holds the ruleset a simulation session runs under.
package rules

import (
	"github.com/l1jgo/skirmish/internal/config"
	"github.com/l1jgo/skirmish/internal/content"
)

type Rules struct {
	// UnitAmmo makes ammo finite. When false every unit reports a full
	// magazine and never resupplies.
	UnitAmmo    bool
	Environment content.Env
	WaveTeam    uint8
	PvP         bool
	UnitCap     int
	// UnitCapVariable adds the teams' core cap modifiers to UnitCap.
	UnitCapVariable     bool
	DropZoneRadius      float64
	DropZonesBlockUnits bool
	Editor              bool
	DamageExplosions    bool
}

// Default returns the ruleset used when nothing is configured.
func Default() *Rules {
	return &Rules{
		Environment:         content.EnvTerrestrial,
		WaveTeam:            2,
		UnitCap:             24,
		DropZoneRadius:      300,
		DropZonesBlockUnits: true,
		DamageExplosions:    true,
	}
}

// FromConfig converts the [rules] section.
func FromConfig(c config.RulesConfig) (*Rules, error) {
	env, err := content.ParseEnv(c.Environment)
	if err != nil {
		return nil, err
	}
	return &Rules{
		UnitAmmo:            c.UnitAmmo,
		Environment:         env,
		WaveTeam:            c.WaveTeam,
		PvP:                 c.PvP,
		UnitCap:             c.UnitCap,
		UnitCapVariable:     c.UnitCapVariable,
		DropZoneRadius:      c.DropZoneRadius,
		DropZonesBlockUnits: c.DropZonesBlockUnits,
		Editor:              c.Editor,
		DamageExplosions:    c.DamageExplosions,
	}, nil
}
