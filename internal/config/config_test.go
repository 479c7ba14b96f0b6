package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("test", flag.ContinueOnError)
}

func TestParse_Defaults(t *testing.T) {
	opts, err := parse(newFlagSet(), []string{"-d", "postgres://x"}, env(nil))
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", opts.Port)
	assert.Equal(t, "postgres://x", opts.DatabaseDSN)
	assert.Equal(t, DefaultTelegramURL, opts.TelegramURL)
	assert.Equal(t, time.Hour, opts.CleanupInterval)
	assert.False(t, opts.TLS())
}

func TestParse_EnvOverridesFlags(t *testing.T) {
	opts, err := parse(newFlagSet(), []string{"-a", ":1", "-d", "flag-dsn"}, env(map[string]string{
		"SERVER_ADDRESS": ":2",
		"DATABASE_DSN":   "env-dsn",
		"TELEGRAM_URL":   "http://tg",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":2", opts.Port)
	assert.Equal(t, "env-dsn", opts.DatabaseDSN)
	assert.Equal(t, "http://tg", opts.TelegramURL)
}

func TestParse_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"address": ":9090", "database_dsn": "file-dsn", "log_level": "debug"}`), 0o600))

	opts, err := parse(newFlagSet(), nil, env(map[string]string{"CONFIG": path}))
	require.NoError(t, err)
	assert.Equal(t, ":9090", opts.Port)
	assert.Equal(t, "file-dsn", opts.DatabaseDSN)
	assert.Equal(t, "debug", opts.LogLevel)
}

func TestParse_Errors(t *testing.T) {
	_, err := parse(newFlagSet(), nil, env(nil))
	assert.Error(t, err, "missing DSN")

	_, err = parse(newFlagSet(), []string{"-d", "x", "-tls-cert", "a.crt"}, env(nil))
	assert.Error(t, err, "cert without key")

	_, err = parse(newFlagSet(), []string{"-c", filepath.Join(t.TempDir(), "missing.json")}, env(nil))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	_, err = parse(newFlagSet(), []string{"-c", bad, "-d", "x"}, env(nil))
	assert.Error(t, err)
}

func TestClient_ApplyEnv(t *testing.T) {
	c := DefaultClient()
	c.ServerURL = "http://flag"
	c.ApplyEnv(env(map[string]string{
		"FLASHVOCAB_SERVER": "http://env",
		"FLASHVOCAB_DATA":   "/tmp/fv",
	}), func(name string) bool { return name == "server" })

	assert.Equal(t, "http://flag", c.ServerURL, "explicit flag wins")
	assert.Equal(t, "/tmp/fv", c.DataDir)
	assert.Equal(t, filepath.Join("/tmp/fv", "flashvocab.db"), c.DatabasePath())
}
