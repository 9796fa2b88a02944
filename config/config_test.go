package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
token: abc
commands:
  guilds: ["1", "2"]
  auth:
    developers: ["10"]
    admin_roles: ["20"]
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "abc", c.Token)
	assert.Equal(t, []string{"1", "2"}, c.Commands.Guilds)
	assert.Equal(t, []string{"20"}, c.Commands.Auth.AdminRoles)
	assert.Equal(t, 10, c.Ledger.MaxEntries)
	assert.Equal(t, 3800, c.Ledger.MaxBodyLength)
	assert.Equal(t, 3, c.Ledger.SubmitBurst)
	assert.Equal(t, time.Minute, c.Ledger.SubmitWindow)
	assert.Equal(t, 90*time.Second, c.Anon.Cooldown)
	assert.Equal(t, ":8000", c.Health.Addr)
	assert.Equal(t, "abc", Get().Token)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "token: from-file\nledger:\n  retry_backoff: 2s\n")
	t.Setenv("MAIDBOT_TOKEN", "from-env")
	t.Setenv("MAIDBOT_LEDGER_MAX_ENTRIES", "4")

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Token)
	assert.Equal(t, 4, c.Ledger.MaxEntries)
	assert.Equal(t, 2*time.Second, c.Ledger.RetryBackoff)
}

func TestLoadConfig_RequiresToken(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "token")
}

func TestLoadConfig_EnvOnly(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("MAIDBOT_TOKEN", "from-env")

	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Token)
	assert.Equal(t, "data/maidbot.db", c.Database.Path)

	_, err = LoadConfig("missing.yaml")
	assert.ErrorContains(t, err, "read config", "an explicit path must exist")
}
