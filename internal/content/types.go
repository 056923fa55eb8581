package content

import "math"

// Item is a carryable resource.
type Item struct {
	ID            int16   `yaml:"-"`
	Name          string  `yaml:"name"`
	Explosiveness float64 `yaml:"explosiveness"`
	Flammability  float64 `yaml:"flammability"`
	Charge        float64 `yaml:"charge"`
}

// StatusEffect modifies a unit while applied.
type StatusEffect struct {
	ID               int16   `yaml:"-"`
	Name             string  `yaml:"name"`
	SpeedMultiplier  float64 `yaml:"speed_multiplier"`
	DamageMultiplier float64 `yaml:"damage_multiplier"`
	HealthMultiplier float64 `yaml:"health_multiplier"`
	Damage           float64 `yaml:"damage"` // per time unit; negative heals
	Disarm           bool    `yaml:"disarm"`
}

// Bullet is the projectile a weapon fires.
type Bullet struct {
	Name         string  `yaml:"name"`
	Damage       float64 `yaml:"damage"`
	Speed        float64 `yaml:"speed"`
	Lifetime     float64 `yaml:"lifetime"`
	HitSize      float64 `yaml:"hit_size"`
	SplashDamage float64 `yaml:"splash_damage"`
	SplashRadius float64 `yaml:"splash_radius"`
	KillShooter  bool    `yaml:"kill_shooter"`
}

// Range is how far the bullet travels before expiring.
func (b *Bullet) Range() float64 {
	return b.Speed * b.Lifetime
}

// Weapon is one weapon slot template on a unit kind.
type Weapon struct {
	Name         string  `yaml:"name"`
	Reload       float64 `yaml:"reload"`
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	Rotate       bool    `yaml:"rotate"`
	RotateSpeed  float64 `yaml:"rotate_speed"`
	ShootOnDeath bool    `yaml:"shoot_on_death"`
	AmmoPerShot  float64 `yaml:"ammo_per_shot"`
	BulletName   string  `yaml:"bullet"`

	Bullet *Bullet `yaml:"-"`
}

// Floor is the ground layer of a tile.
type Floor struct {
	ID              int16   `yaml:"-"`
	Name            string  `yaml:"name"`
	DragMultiplier  float64 `yaml:"drag_multiplier"`
	SpeedMultiplier float64 `yaml:"speed_multiplier"`
	DamageTaken     float64 `yaml:"damage_taken"`
	IsDeep          bool    `yaml:"deep"`
	Solid           bool    `yaml:"solid"`
}

// Block is a structure occupying a tile.
type Block struct {
	ID              int16   `yaml:"-"`
	Name            string  `yaml:"name"`
	Solid           bool    `yaml:"solid"`
	Core            bool    `yaml:"core"`
	UnitCapModifier int     `yaml:"unit_cap_modifier"`
	Health          float64 `yaml:"health"`
}

// Ability kinds understood by the unit package.
const (
	AbilityRegen       = "regen"
	AbilityShieldRegen = "shield-regen"
	AbilityStatusField = "status-field"
	AbilitySpawnDeath  = "spawn-death"
)

// AbilityTemplate is copied into every unit of the kind.
type AbilityTemplate struct {
	Kind       string  `yaml:"kind"`
	Amount     float64 `yaml:"amount"`
	Max        float64 `yaml:"max"`
	Reload     float64 `yaml:"reload"`
	Range      float64 `yaml:"range"`
	Duration   float64 `yaml:"duration"`
	StatusName string  `yaml:"status"`
	SpawnKind  string  `yaml:"spawn_kind"`
	SpawnCount int     `yaml:"spawn_count"`

	Status *StatusEffect `yaml:"-"`
}

// Ammo source policies.
const (
	AmmoItem = "item"
	AmmoNone = "none"
)

// AmmoPolicy describes where a unit kind resupplies ammo from.
type AmmoPolicy struct {
	Kind     string  `yaml:"kind"`
	ItemName string  `yaml:"item"`
	PerItem  float64 `yaml:"per_item"`
	Range    float64 `yaml:"range"`

	Item *Item `yaml:"-"`
}

// UnitType is the immutable per-kind definition shared by every unit of the
// kind. Nothing mutates it after the catalog is loaded.
type UnitType struct {
	ID                    int16             `yaml:"-"`
	Name                  string            `yaml:"name"`
	Speed                 float64           `yaml:"speed"`
	Accel                 float64           `yaml:"accel"`
	RotateSpeed           float64           `yaml:"rotate_speed"`
	Health                float64           `yaml:"health"`
	Armor                 float64           `yaml:"armor"`
	HitSize               float64           `yaml:"hit_size"`
	Drag                  float64           `yaml:"drag"`
	Flying                bool              `yaml:"flying"`
	CanBoost              bool              `yaml:"can_boost"`
	BoostMultiplier       float64           `yaml:"boost_multiplier"`
	StrafePenalty         float64           `yaml:"strafe_penalty"`
	Hovering              bool              `yaml:"hovering"`
	OmniMovement          *bool             `yaml:"omni_movement"`
	CanDrown              *bool             `yaml:"can_drown"`
	FallSpeed             float64           `yaml:"fall_speed"`
	RiseSpeed             float64           `yaml:"rise_speed"`
	EngineOffset          float64           `yaml:"engine_offset"`
	EngineSize            float64           `yaml:"engine_size"`
	ItemCapacity          int               `yaml:"item_capacity"`
	AmmoCapacity          float64           `yaml:"ammo_capacity"`
	Ammo                  AmmoPolicy        `yaml:"ammo"`
	EnvEnabledNames       []string          `yaml:"env_enabled"`
	EnvRequiredNames      []string          `yaml:"env_required"`
	EnvDisabledNames      []string          `yaml:"env_disabled"`
	CapabilityNames       []string          `yaml:"capabilities"`
	Overrides             []string          `yaml:"overrides"`
	Weapons               []*Weapon         `yaml:"weapons"`
	Abilities             []AbilityTemplate `yaml:"abilities"`
	Controller            string            `yaml:"controller"`
	Hook                  string            `yaml:"hook"`
	CrashDamageMultiplier float64           `yaml:"crash_damage_multiplier"`
	LandShake             float64           `yaml:"land_shake"`
	WreckRegions          []string          `yaml:"wreck_regions"`
	DeathExplosionEffect  string            `yaml:"death_explosion_effect"`
	FallEffect            string            `yaml:"fall_effect"`
	FallThrusterEffect    string            `yaml:"fall_thruster_effect"`
	DeathSound            string            `yaml:"death_sound"`
	ImmunityNames         []string          `yaml:"immunities"`

	EnvEnabled   Env                    `yaml:"-"`
	EnvRequired  Env                    `yaml:"-"`
	EnvDisabled  Env                    `yaml:"-"`
	Capabilities Capability             `yaml:"-"`
	Immunities   map[*StatusEffect]bool `yaml:"-"`
	MaxRange     float64                `yaml:"-"`
}

// SupportsEnv reports whether the kind can exist in env.
func (t *UnitType) SupportsEnv(env Env) bool {
	return t.EnvEnabled&env != 0 && t.EnvDisabled&env == 0 &&
		(t.EnvRequired == 0 || t.EnvRequired&env != 0)
}

// IsOmni reports whether the kind moves in any direction regardless of facing.
func (t *UnitType) IsOmni() bool { return t.OmniMovement == nil || *t.OmniMovement }

// Drowns reports whether the kind can drown in deep floors.
func (t *UnitType) Drowns() bool { return t.CanDrown == nil || *t.CanDrown }

// HasWeapons reports whether the kind has at least one weapon slot.
func (t *UnitType) HasWeapons() bool { return len(t.Weapons) > 0 }

// Has reports whether the kind declares capability c.
func (t *UnitType) Has(c Capability) bool { return t.Capabilities.Has(c) }

const miningRange = 70

func (t *UnitType) applyDefaults() {
	def := func(v *float64, d float64) {
		if *v == 0 {
			*v = d
		}
	}
	def(&t.Speed, 1.1)
	def(&t.Accel, 0.5)
	def(&t.RotateSpeed, 5)
	def(&t.Health, 200)
	def(&t.HitSize, 6)
	def(&t.Drag, 0.3)
	def(&t.FallSpeed, 0.018)
	def(&t.RiseSpeed, 0.08)
	def(&t.StrafePenalty, 0.5)
	def(&t.BoostMultiplier, 1)
	def(&t.CrashDamageMultiplier, 1)
	def(&t.EngineOffset, 5)
	def(&t.EngineSize, 2.5)
	if t.ItemCapacity == 0 {
		t.ItemCapacity = int(math.Max(math.Round(t.HitSize*4.3/10)*10, 10))
	}
	if t.AmmoCapacity == 0 {
		shotsPerSecond := 0.0
		for _, w := range t.Weapons {
			if w.Reload > 0 {
				shotsPerSecond += 60 / w.Reload
			}
		}
		t.AmmoCapacity = math.Max(1, math.Floor(shotsPerSecond*35))
	}
	if t.Ammo.Kind == "" {
		t.Ammo.Kind = AmmoNone
	}
	if t.Ammo.PerItem == 0 {
		t.Ammo.PerItem = 10
	}
	if t.Ammo.Range == 0 {
		t.Ammo.Range = 85
	}
	if t.Controller == "" {
		if t.Flying {
			t.Controller = "flying"
		} else {
			t.Controller = "ground"
		}
	}
	if t.DeathExplosionEffect == "" {
		t.DeathExplosionEffect = "dynamic-explosion"
	}
	if t.FallEffect == "" {
		t.FallEffect = "fall-smoke"
	}
	if t.FallThrusterEffect == "" {
		t.FallThrusterEffect = "fall-smoke"
	}
	if t.DeathSound == "" {
		t.DeathSound = "bang"
	}
	for _, w := range t.Weapons {
		if w.AmmoPerShot == 0 {
			w.AmmoPerShot = 1
		}
		if w.RotateSpeed == 0 {
			w.RotateSpeed = 20
		}
	}
	t.MaxRange = 0
	for _, w := range t.Weapons {
		if w.Bullet != nil {
			t.MaxRange = math.Max(t.MaxRange, w.Bullet.Range())
		}
	}
	if len(t.Weapons) == 0 {
		t.MaxRange = miningRange
	}
}

func (s *StatusEffect) applyDefaults() {
	if s.SpeedMultiplier == 0 {
		s.SpeedMultiplier = 1
	}
	if s.DamageMultiplier == 0 {
		s.DamageMultiplier = 1
	}
	if s.HealthMultiplier == 0 {
		s.HealthMultiplier = 1
	}
}

func (f *Floor) applyDefaults() {
	if f.DragMultiplier == 0 {
		f.DragMultiplier = 1
	}
	if f.SpeedMultiplier == 0 {
		f.SpeedMultiplier = 1
	}
}
