package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/san-kum/rdsim/internal/dynamo"
)

var ErrInvalidEnv = fmt.Errorf("%w: invalid environment variable", dynamo.ErrConfiguration)

// Env holds the process environment overrides.
type Env struct {
	DataDir   string        `env:"RDSIM_DATA" envDefault:"runs"`
	Store     string        `env:"RDSIM_STORE" envDefault:"file"`
	LogLevel  string        `env:"RDSIM_LOG_LEVEL" envDefault:"info"`
	RunBudget time.Duration `env:"RDSIM_RUN_BUDGET" envDefault:"100ms"`
}

// ParseEnv loads Env from the process environment.
func ParseEnv() (Env, error) {
	return parseEnv(env.Options{})
}

// ParseEnvFrom loads Env from the given variables instead of the process
// environment.
func ParseEnvFrom(vars map[string]string) (Env, error) {
	return parseEnv(env.Options{Environment: vars})
}

func parseEnv(opts env.Options) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, opts); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	switch e.Store {
	case "file", "sqlite":
	default:
		return Env{}, fmt.Errorf("%w: RDSIM_STORE %q", ErrInvalidEnv, e.Store)
	}
	if e.RunBudget <= 0 {
		return Env{}, fmt.Errorf("%w: RDSIM_RUN_BUDGET %s", ErrInvalidEnv, e.RunBudget)
	}
	return e, nil
}
