// Package config loads command configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads target from environment variables named by its `env` tags.
func ParseEnv(target any) error {
	return ParseEnvWithPrefix("", target)
}

// ParseEnvWithPrefix is ParseEnv with prefix prepended to every variable
// name, so one config struct can serve several commands.
func ParseEnvWithPrefix(prefix string, target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
