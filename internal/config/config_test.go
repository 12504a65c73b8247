package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Treasury.OwnerAddress = "0x00000000000000000000000000000000000000aa"
	cfg.Treasury.PrivateKey = "ab"
	cfg.Server.AdminAPIKey = "admin-secret"
	return cfg
}

func TestDefaultsValidateWithRequiredSecrets(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.Oracle.FeedAddress = "not-an-address"
	cfg.Oracle.Heartbeat = duration{0}
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "feed_address")
	assert.Contains(t, err.Error(), "heartbeat")
	assert.Contains(t, err.Error(), "redis: addr")
	assert.Contains(t, err.Error(), "admin_api_key")
}

func TestValidateZeroFeedAddress(t *testing.T) {
	cfg := validConfig()
	cfg.Oracle.FeedAddress = "0x0000000000000000000000000000000000000000"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero address")
}

func TestValidateEncryptedKeyNeedsPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Treasury.PrivateKey = ""
	cfg.Treasury.EncryptedKeyPath = "/tmp/key.json"
	cfg.Treasury.KeyPassword = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key_password")
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
log_level = "debug"

[oracle]
heartbeat = "30m"

[server]
port = 9001
admin_api_key = "admin-secret"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.Oracle.Heartbeat.Duration)
	assert.Equal(t, 9001, cfg.Server.Port)
	// Untouched fields keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_level = \"info\"\n"), 0o600))

	t.Setenv("STOREFRONT_ORACLE_HEARTBEAT", "2h")
	t.Setenv("STOREFRONT_SERVER_PORT", "7777")
	t.Setenv("STOREFRONT_NOTIFY_EVENTS", "purchase_made, item_added")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Oracle.Heartbeat.Duration)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, []string{"purchase_made", "item_added"}, cfg.Notify.Events)
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.Password = "hunter2"
	cfg.Notify.DiscordWebhookURL = "https://discord.example/webhook"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Treasury.PrivateKey)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Server.AdminAPIKey)
	assert.Equal(t, "***", red.Notify.DiscordWebhookURL)
	// Original is untouched.
	assert.Equal(t, "hunter2", cfg.Postgres.Password)
}
