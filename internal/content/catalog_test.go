package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
items:
  - name: copper
  - name: graphite
statuses:
  - name: wet
    speed_multiplier: 0.9
bullets:
  - name: basic
    speed: 2
    lifetime: 50
floors:
  - name: stone
blocks:
  - name: core
    core: true
units:
  - name: dagger
    weapons:
      - name: gun
        reload: 20
        bullet: basic
  - name: flare
    flying: true
  - name: carrier
    capabilities: [default, payload]
    env_enabled: [terrestrial, space]
    env_disabled: [space]
    ammo: {kind: item, item: graphite}
    immunities: [wet]
    controller: logic:patrol
`

func TestParseResolvesAndDefaults(t *testing.T) {
	c, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Count())

	dagger := c.Unit("dagger")
	require.NotNil(t, dagger)
	assert.EqualValues(t, 0, dagger.ID)
	assert.Same(t, c.Bullet("basic"), dagger.Weapons[0].Bullet)
	assert.Equal(t, 100.0, dagger.MaxRange)
	assert.Equal(t, 105.0, dagger.AmmoCapacity) // 60/20 shots per second * 35
	assert.Equal(t, "ground", dagger.Controller)
	assert.Equal(t, 1.0, dagger.Weapons[0].AmmoPerShot)
	assert.Equal(t, CapDefault, dagger.Capabilities)
	assert.True(t, dagger.IsOmni())
	assert.True(t, dagger.Drowns())

	flare := c.Unit("flare")
	assert.Equal(t, "flying", flare.Controller)
	assert.Equal(t, float64(miningRange), flare.MaxRange)
	assert.False(t, flare.HasWeapons())

	carrier := c.Unit("carrier")
	assert.True(t, carrier.Has(CapPayload))
	assert.True(t, carrier.Has(CapHealth))
	assert.True(t, carrier.SupportsEnv(EnvTerrestrial))
	assert.False(t, carrier.SupportsEnv(EnvSpace))
	assert.Same(t, c.Item("graphite"), carrier.Ammo.Item)
	assert.True(t, carrier.Immunities[c.Status("wet")])

	assert.Same(t, c.Unit("flare"), c.UnitByID(1))
	assert.Nil(t, c.UnitByID(9))
	assert.Nil(t, c.ItemByID(-1))
	assert.Equal(t, 1.0, c.Status("wet").DamageMultiplier)
}

func TestParseRejectsDanglingReferences(t *testing.T) {
	cases := map[string]string{
		"unknown bullet": `
units:
  - name: a
    weapons: [{name: w, bullet: missing}]`,
		"unknown capability": `
units:
  - name: a
    capabilities: [teleport]`,
		"duplicate unit": `
units:
  - name: a
  - name: a`,
		"unknown env": `
units:
  - name: a
    env_enabled: [lava]`,
		"unknown ammo item": `
units:
  - name: a
    ammo: {kind: item, item: gold}`,
		"spawn death kind": `
units:
  - name: a
    abilities: [{kind: spawn-death, spawn_kind: ghost}]`,
		"nameless item": `
items:
  - explosiveness: 1`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestParseCapabilities(t *testing.T) {
	c, err := ParseCapabilities([]string{" Health ", "physics"})
	require.NoError(t, err)
	assert.Equal(t, CapHealth|CapPhysics, c)
	assert.False(t, c.Has(CapWeapons))

	c, err = ParseCapabilities(nil)
	require.NoError(t, err)
	assert.Equal(t, CapDefault, c)
	assert.False(t, c.Has(CapPayload))
}

func TestParseEnv(t *testing.T) {
	e, err := ParseEnv([]string{"terrestrial", "SPORES"})
	require.NoError(t, err)
	assert.Equal(t, EnvTerrestrial|EnvSpores, e)
}
