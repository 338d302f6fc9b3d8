package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultOpener(t *testing.T) {
	expected := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "start",
	}

	want, ok := expected[runtime.GOOS]
	if !ok {
		want = "open"
	}
	assert.Equal(t, want, getDefaultOpener())
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, BackendBolt, cfg.Database.Backend)
	assert.Equal(t, 1*time.Second, cfg.Database.Timeout)
	assert.False(t, cfg.Database.RestrictPaths)
	assert.Equal(t, 20, cfg.List.PageSize)
	assert.Equal(t, 1, cfg.List.SearchMinLength)
	assert.Equal(t, "off", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Media.DefaultOpener)
	assert.Equal(t, "/", cfg.Keys.Bindings.Search)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DefaultConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.List.PageSize)
	assert.True(t, filepath.IsAbs(cfg.Database.Path))
	assert.Equal(t, "#E0AF68", cfg.UI.Colors.Highlight)
}

func TestLoad_FromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.toml")
	configContent := `
[database]
backend = "sqlite"
sqlite_path = "/tmp/test.sqlite"
timeout = "10s"
restrict_paths = true

[list]
page_size = 7

[ui.colors]
primary = "#FF0000"

[keys.bindings]
refresh = "R"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Database.Backend)
	assert.Equal(t, "/tmp/test.sqlite", cfg.Database.SQLitePath)
	assert.Equal(t, 10*time.Second, cfg.Database.Timeout)
	assert.True(t, cfg.Database.RestrictPaths)
	assert.Equal(t, 7, cfg.List.PageSize)
	assert.Equal(t, "#FF0000", cfg.UI.Colors.Primary)
	assert.Equal(t, "#9ECE6A", cfg.UI.Colors.Secondary, "unset colors keep their defaults")
	assert.Equal(t, "R", cfg.Keys.Bindings.Refresh)
	assert.Equal(t, "q", cfg.Keys.Bindings.Quit)
}

func TestLoad_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	configPath := filepath.Join(t.TempDir(), "home.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[database]\npath = \"~/diary/days.db\"\n"), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "diary", "days.db"), cfg.Database.Path)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("DAYBOOK_LIST_PAGE_SIZE", "3")
	configPath := filepath.Join(t.TempDir(), "env.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[list]\npage_size = 9\n"), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.List.PageSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown backend", "[database]\nbackend = \"mongo\"\n", "database.backend"},
		{"zero page size", "[list]\npage_size = 0\n", "list.page_size"},
		{"zero min length", "[list]\nsearch_min_length = 0\n", "list.search_min_length"},
		{"broken toml", "[list\n", "reading config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "bad.toml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.content), 0o644))

			_, err := Load(configPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSave(t *testing.T) {
	cfg := TestConfig(t.TempDir())
	cfg.Database.Backend = BackendBleve
	cfg.Database.Timeout = 10 * time.Second
	cfg.UI.Colors.Primary = "#00FF00"
	cfg.Media.DefaultOpener = "test-opener"
	cfg.Media.Linux.Image = []string{"imv"}
	cfg.Keys.Modifier = "alt"
	cfg.Keys.Bindings.LoadMore = "n"

	savePath := filepath.Join(t.TempDir(), "nested", "saved-config.toml")
	require.NoError(t, Save(cfg, savePath))

	loaded, err := Load(savePath)
	require.NoError(t, err)

	assert.Equal(t, cfg.Database, loaded.Database)
	assert.Equal(t, cfg.List, loaded.List)
	assert.Equal(t, cfg.UI.Colors, loaded.UI.Colors)
	assert.Equal(t, "test-opener", loaded.Media.DefaultOpener)
	assert.Equal(t, []string{"imv"}, loaded.Media.Linux.Image)
	assert.Equal(t, cfg.Keys, loaded.Keys)
}

func TestGenerateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "generated.toml")
	require.NoError(t, GenerateDefaultConfig(configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "page_size")
	assert.Contains(t, string(data), "search_index")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "ctrl", cfg.Keys.Modifier)
	assert.Equal(t, defaultConfig().List, cfg.List)
}

func TestTestConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := TestConfig(dir)

	assert.Equal(t, filepath.Join(dir, "daybook.db"), cfg.Database.Path)
	assert.Equal(t, 5, cfg.List.PageSize)
	assert.NoError(t, cfg.Validate())
}
