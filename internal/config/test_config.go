package config

import (
	"path/filepath"
	"time"
)

// TestConfig returns a config with small pages and logging off, rooted at
// dir for every on-disk path.
func TestConfig(dir string) *Config {
	cfg := defaultConfig()
	cfg.Database = DatabaseConfig{
		Backend:     BackendBolt,
		Path:        filepath.Join(dir, "daybook.db"),
		SQLitePath:  filepath.Join(dir, "daybook.sqlite"),
		Timeout:     1 * time.Second,
		SearchIndex: filepath.Join(dir, "index.bleve"),
	}
	cfg.List.PageSize = 5
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
