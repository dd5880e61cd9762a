package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFile = "config.yaml"

// Defaults applied when the config file is absent or partial.
const (
	DefaultServerURL = "http://localhost:3000/api/reports"
	DefaultLimit     = 25
)

// FileConfig is the on-disk CLI configuration, read from
// ~/.medisys/config.yaml. All fields are optional; missing values fall
// back to defaults, and the --server flag overrides the file.
type FileConfig struct {
	// ServerURL is the portal reports API endpoint.
	ServerURL string `yaml:"server_url"`
	// Issuer is the OIDC issuer used for device-flow login, e.g. the
	// hosted Cognito user pool URL.
	Issuer string `yaml:"issuer"`
	// ClientID is the public OIDC client for this CLI.
	ClientID string `yaml:"client_id"`
	// DefaultLimit is the page size used when --limit is not given.
	DefaultLimit int `yaml:"default_limit"`
}

// Dir returns the per-user configuration directory, creating it when
// absent.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	dir := filepath.Join(home, ".medisys")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

// Load reads the config file from dir and applies defaults. A missing
// file is not an error; a malformed one is.
func Load(dir string) (FileConfig, error) {
	cfg := FileConfig{
		ServerURL:    DefaultServerURL,
		DefaultLimit: DefaultLimit,
	}

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if file.ServerURL != "" {
		cfg.ServerURL = file.ServerURL
	}
	cfg.Issuer = file.Issuer
	cfg.ClientID = file.ClientID
	if file.DefaultLimit > 0 {
		cfg.DefaultLimit = file.DefaultLimit
	}
	return cfg, nil
}
