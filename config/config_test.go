package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ASTRONOMY_API_BASE_URL", "ASTRONOMY_APP_ID", "ASTRONOMY_APP_SECRET", "CREDENTIALS_PATH",
	"PROXY_URL", "SERVER_PORT", "CACHE_DURATION", "HTTP_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
	"CORS_ALLOWED_ORIGINS", "TRUSTED_PROXIES", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "VALKEY_ADDR",
	"DEFAULT_LATITUDE", "DEFAULT_LONGITUDE",
}

// Load читает .env из текущего каталога, поэтому тесты уходят во временный.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://api.astronomyapi.com/api/v2", cfg.BaseURL)
	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, 10*time.Minute, cfg.CacheTTL())
	require.Equal(t, 30*time.Second, cfg.Timeout())
	require.Equal(t, 2.0, cfg.RateLimitRPS)
	require.Equal(t, 5, cfg.RateLimitBurst)
	require.Nil(t, cfg.AllowedOrigins)
	require.Nil(t, cfg.TrustedProxies)
	require.InDelta(t, 33.775867, cfg.DefaultLat, 1e-9)
	require.InDelta(t, -84.39733, cfg.DefaultLng, 1e-9)
}

func TestLoad_EnvOverridesAndBadNumbersFallBack(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CACHE_DURATION", "3")
	t.Setenv("HTTP_TIMEOUT", "soon")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://stars.example, ,https://www.stars.example")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3*time.Minute, cfg.CacheTTL())
	require.Equal(t, 30*time.Second, cfg.Timeout())
	require.Equal(t, []string{"https://stars.example", "https://www.stars.example"}, cfg.AllowedOrigins)
	require.Equal(t, 0.5, cfg.RateLimitRPS)
	require.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	isolateEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("ASTRONOMY_APP_ID=from-dotenv\n"), 0o600))
	// godotenv не перезаписывает уже заданные переменные, пустая считается заданной.
	require.NoError(t, os.Unsetenv("ASTRONOMY_APP_ID"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.AppID)
	require.NoError(t, os.Unsetenv("ASTRONOMY_APP_ID"))
}

func TestLoad_NegativeCacheDurationFails(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CACHE_DURATION", "-1")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.Validate())

	cfg.ApplyCredentials(Credentials{AppID: "id", AppSecret: "secret"})
	require.NoError(t, cfg.Validate())

	proxied := &Config{ProxyURL: "https://proxy.example"}
	require.NoError(t, proxied.Validate())
}

func TestApplyCredentials_EnvWins(t *testing.T) {
	cfg := &Config{AppID: "env-id"}
	cfg.ApplyCredentials(Credentials{AppID: "file-id", AppSecret: "file-secret"})
	require.Equal(t, "env-id", cfg.AppID)
	require.Equal(t, "file-secret", cfg.AppSecret)
}
