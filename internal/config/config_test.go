package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USERNAME", "jewel")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_DATABASE", "jewelconnect")
	t.Setenv("ACCESS_TOKEN_SECRET", "access")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", "https://app.jewelconnect.test/, http://localhost:5173")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 300, cfg.RateLimitPerMinute)
	assert.True(t, cfg.JobsEnabled)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://app.jewelconnect.test", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.False(t, cfg.Google.Enabled())
	assert.Nil(t, OAuthConfig(cfg.Google))
}

func TestLoad_MissingSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
}

func TestLoad_InvalidPort(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "eighty")

	_, err := Load()
	assert.Error(t, err)
}

func TestOAuthConfig_Enabled(t *testing.T) {
	cfg := OAuthConfig(GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"})
	require.NotNil(t, cfg)
	assert.Equal(t, "http://localhost/cb", cfg.RedirectURL)
	assert.Contains(t, cfg.Scopes, "email")
}
