package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, DefaultLimit, cfg.DefaultLimit)
	assert.Empty(t, cfg.Issuer)
}

func TestLoad_PartialFile(t *testing.T) {
	dir := t.TempDir()
	content := "issuer: https://cognito-idp.us-east-1.amazonaws.com/us-east-1_example\nclient_id: abc123\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(content), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_example", cfg.Issuer)
	assert.Equal(t, "abc123", cfg.ClientID)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL, "unset keys keep their defaults")
	assert.Equal(t, DefaultLimit, cfg.DefaultLimit)
}

func TestLoad_FullFile(t *testing.T) {
	dir := t.TempDir()
	content := `server_url: https://portal.example.com/api/reports
issuer: https://issuer.example.com
client_id: abc123
default_limit: 100
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(content), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com/api/reports", cfg.ServerURL)
	assert.Equal(t, 100, cfg.DefaultLimit)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte("server_url: [unterminated"), 0600))

	_, err := Load(dir)
	assert.Error(t, err)
}
