package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateXDG(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("ENV", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(base, "state"))
	return base
}

func TestSetDefaults(t *testing.T) {
	mgr := &Manager{viper: viper.New()}
	mgr.setDefaults()

	assert.Equal(t, "info", mgr.viper.GetString("logging.level"))
	assert.Equal(t, defaultWorkers, mgr.viper.GetInt("explorer.workers"))
	assert.Equal(t, defaultPageSize, mgr.viper.GetInt("explorer.page_size"))
	assert.Equal(t, defaultFetchTimeout, mgr.viper.GetDuration("explorer.fetch_timeout"))
	assert.False(t, mgr.viper.GetBool("metrics.enabled"))
}

func TestNormalizeConfig(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Logging.Level = " DEBUG "
	cfg.Logging.Format = ""
	cfg.Explorer.Root = "~/projects/../src/"
	cfg.Explorer.Workers = 0

	normalizeConfig(cfg)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, filepath.Join(home, "src"), cfg.Explorer.Root)
	assert.Equal(t, defaultWorkers, cfg.Explorer.Workers)
}

func TestManager_LoadCreatesDefaultFile(t *testing.T) {
	base := isolateXDG(t)

	mgr, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, mgr.Load())

	cfg := mgr.Get()
	assert.Equal(t, defaultWorkers, cfg.Explorer.Workers)
	assert.Equal(t, filepath.Join(base, "data", appName, databaseName), cfg.Database.Path)
	assert.FileExists(t, filepath.Join(base, "config", appName, "config.toml"))
}

func TestManager_LoadReadsFileAndEnv(t *testing.T) {
	base := isolateXDG(t)
	configFile := filepath.Join(base, "config", appName, "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(configFile), dirPerm))
	require.NoError(t, os.WriteFile(configFile, []byte(`
[explorer]
workers = 8
page_size = 25
fetch_timeout = "2s"
`), filePerm))
	t.Setenv("GROVE_LOG_LEVEL", "warn")
	t.Setenv("GROVE_EXPLORER_SHOW_HIDDEN", "true")

	mgr, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, mgr.Load())

	cfg := mgr.Get()
	assert.Equal(t, 8, cfg.Explorer.Workers)
	assert.Equal(t, 25, cfg.Explorer.PageSize)
	assert.Equal(t, 2*time.Second, cfg.Explorer.FetchTimeout)
	assert.True(t, cfg.Explorer.ShowHidden)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestManager_LoadRejectsInvalid(t *testing.T) {
	base := isolateXDG(t)
	configFile := filepath.Join(base, "config", appName, "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(configFile), dirPerm))
	require.NoError(t, os.WriteFile(configFile, []byte("[explorer]\nworkers = 500\n"), filePerm))

	mgr, err := NewManager()
	require.NoError(t, err)

	err = mgr.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explorer.workers")
}

func TestManager_GetReturnsCopy(t *testing.T) {
	isolateXDG(t)
	mgr, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, mgr.Load())

	mgr.Get().Explorer.Workers = 63

	assert.Equal(t, defaultWorkers, mgr.Get().Explorer.Workers)
}

func TestManager_Save(t *testing.T) {
	isolateXDG(t)
	mgr, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, mgr.Load())

	cfg := mgr.Get()
	cfg.Explorer.PageSize = 10
	require.NoError(t, mgr.Save(cfg))
	assert.Equal(t, 10, mgr.Get().Explorer.PageSize)

	reloaded, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 10, reloaded.Get().Explorer.PageSize)

	cfg.Explorer.Workers = 0
	assert.Error(t, mgr.Save(cfg))
	assert.Error(t, mgr.Save(nil))
}

func TestGetXDGDirs_DevMode(t *testing.T) {
	t.Setenv("ENV", "dev")
	cwd, err := os.Getwd()
	require.NoError(t, err)

	dirs, err := GetXDGDirs()
	require.NoError(t, err)

	want := filepath.Join(cwd, ".dev", appName)
	assert.Equal(t, want, dirs.ConfigHome)
	assert.Equal(t, want, dirs.DataHome)
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "explorer")
	assert.Contains(t, props, "metrics")
}
