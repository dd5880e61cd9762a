package config

import (
	"context"

	"github.com/strelizia53/medisys-sheroll-aws/internal/client"
)

type contextKey string

const configKey contextKey = "medisysctl-config"

// GlobalConfig holds shared configuration for all medisysctl commands.
// It is injected into the cobra command context by the root command's
// PersistentPreRun hook and consumed by all subcommands.
type GlobalConfig struct {
	ServerURL      string
	Issuer         string
	ClientID       string
	DefaultLimit   int
	NonInteractive bool
	ClientProvider *client.Provider
}

// InjectConfig adds cfg to the cobra command context. This should be
// called in the root command's PersistentPreRun.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
// Returns (nil, false) if config is not present.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics. Only for
// command RunE functions, where the root command has injected it.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("medisysctl: config not found in context - this is a bug in medisysctl")
	}
	return cfg
}
