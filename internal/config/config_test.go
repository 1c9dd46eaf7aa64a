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
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "server.toml"))
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.Server.TickRate)
	assert.Equal(t, DriverSQLite, cfg.Persist.Driver)
	assert.Equal(t, 4, cfg.World.StarterItems["stone"])
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.NotZero(t, cfg.Server.StartTime)
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[server]\nname = \"test\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Server.Name)
	assert.Equal(t, 3, cfg.World.InitialRadius)
	assert.Equal(t, 128, cfg.Network.MaxMessagesPerTick)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, body := range map[string]string{
		"driver":   "[persist]\ndriver = \"mysql\"\n",
		"tick":     "[server]\ntick_rate = \"0s\"\n",
		"obstacle": "[world]\nobstacle_chance = 1.5\n",
		"syntax":   "[server\n",
	} {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
