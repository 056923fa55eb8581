package content

import (
	"fmt"
	"strings"
)

// Env is a bitmask of world environments.
type Env uint32

const (
	EnvTerrestrial Env = 1 << iota
	EnvSpace
	EnvUnderwater
	EnvSpores
	EnvScorching
	EnvOil
	EnvNone Env = 0
	EnvAny  Env = 0xffffffff
)

var envNames = map[string]Env{
	"terrestrial": EnvTerrestrial,
	"space":       EnvSpace,
	"underwater":  EnvUnderwater,
	"spores":      EnvSpores,
	"scorching":   EnvScorching,
	"oil":         EnvOil,
	"any":         EnvAny,
}

// ParseEnv ORs the named environments together.
func ParseEnv(names []string) (Env, error) {
	var env Env
	for _, n := range names {
		e, ok := envNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("unknown environment %q", n)
		}
		env |= e
	}
	return env, nil
}
