package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CRYPTO_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("GITHUB_CLIENT_ID", "client-id")
	t.Setenv("GITHUB_CLIENT_SECRET", "client-secret")
	t.Setenv("GITHUB_TOKEN", "ghp_host")
	t.Setenv("GITHUB_USER", "blablaDev-hub")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/devhub.db", cfg.DBPath)
	assert.Equal(t, 5*time.Second, cfg.WatchInterval)
	assert.Equal(t, 360, cfg.WatchMaxPolls)
	assert.Equal(t, 10, cfg.AuthRatePerMin)
	assert.Equal(t, "blablaDev-hub", cfg.TemplateOrg, "template org defaults to the hosting account")
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("WATCH_INTERVAL", "250ms")
	t.Setenv("WATCH_MAX_POLLS", "12")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("GITHUB_TEMPLATE_ORG", "template-org")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.WatchInterval)
	assert.Equal(t, 12, cfg.WatchMaxPolls)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "template-org", cfg.TemplateOrg)
}

func TestFromEnvMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("CRYPTO_KEY", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRYPTO_KEY")
}

func TestFromEnvBadPort(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "not-a-port")

	_, err := FromEnv()
	require.Error(t, err)
}
