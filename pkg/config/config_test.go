package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets a variable for the test while restoring the original
// value afterwards.
func clearEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

// chdir switches the working directory for the test, restoring the
// original afterwards. (testing.T.Chdir needs Go 1.24+.)
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoadReadsDotEnvBeforeEnvLookups(t *testing.T) {
	clearEnv(t, "JWT_SECRET")
	clearEnv(t, "STORY_SWEEP_INTERVAL")
	clearEnv(t, "POSTGRES_CONN_STR")

	dir := t.TempDir()
	dotenv := "JWT_SECRET=from-dotenv\nSTORY_SWEEP_INTERVAL=30s\nPOSTGRES_CONN_STR=postgres://dotenv/db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600))
	chdir(t, dir)

	cfg := Load()

	assert.Equal(t, "from-dotenv", cfg.JWTSecret, "values from .env must win over defaults")
	assert.Equal(t, 30*time.Second, cfg.StorySweepInterval)
	assert.Equal(t, "postgres://dotenv/db", cfg.PostgresConnStr)
}

func TestLoadDefaultsWithoutDotEnv(t *testing.T) {
	clearEnv(t, "PORT")
	clearEnv(t, "STORE")
	clearEnv(t, "JWT_SECRET")
	clearEnv(t, "STORY_SWEEP_INTERVAL")

	chdir(t, t.TempDir())

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongo", cfg.Store)
	assert.Equal(t, "supersecretjwtkey", cfg.JWTSecret)
	assert.Equal(t, 10*time.Minute, cfg.StorySweepInterval)
}

func TestLoadEnvironmentOverridesDotEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-environ")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-dotenv\n"), 0o600))
	chdir(t, dir)

	cfg := Load()

	assert.Equal(t, "from-environ", cfg.JWTSecret, "real environment wins over the .env file")
}

func TestLoadIgnoresMalformedDuration(t *testing.T) {
	t.Setenv("STORY_SWEEP_INTERVAL", "not-a-duration")
	chdir(t, t.TempDir())

	cfg := Load()
	assert.Equal(t, 10*time.Minute, cfg.StorySweepInterval)
}
