package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-status/config"
	"github.com/warp/rent-status/rent"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT",
		"CORS_ALLOWED_ORIGINS", "RENT_CREDIT_POLICY", "SHUTDOWN_TIMEOUT", "DIGEST_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.FromEnv()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "rent.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, rent.CreditSurface, cfg.CreditPolicy)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Hour, cfg.DigestInterval)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RENT_CREDIT_POLICY", "CLAMP")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("DIGEST_INTERVAL", "0")

	cfg, err := config.FromEnv()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, rent.CreditClamp, cfg.CreditPolicy)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Zero(t, cfg.DigestInterval, "zero disables the digest")
}

func TestFromEnv_MalformedNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg, err := config.FromEnv()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestFromEnv_UnknownCreditPolicy(t *testing.T) {
	clearEnv(t)
	t.Setenv("RENT_CREDIT_POLICY", "forgive")

	_, err := config.FromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "RENT_CREDIT_POLICY")
}

func TestLoad_ReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	// GIVEN: A .env file setting two variables, one of which is already set
	clearEnv(t)
	t.Setenv("PORT", "7000")
	require.NoError(t, os.Unsetenv("DB_PATH")) // restored by clearEnv's cleanup
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=6000\nDB_PATH=from-file.db\n"), 0o600))

	// WHEN: Loading with that file
	cfg, err := config.Load(path)

	// THEN: The file fills the gap but the environment wins
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "from-file.db", cfg.DBPath)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

func TestNewLogger(t *testing.T) {
	logger := config.NewLogger("debug", "text")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger = config.NewLogger("nonsense", "json")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
