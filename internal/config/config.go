package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Backend names accepted in database.backend.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendBleve  = "bleve"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	List     ListConfig     `mapstructure:"list"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
	Media    MediaConfig    `mapstructure:"media"`
	Keys     KeyConfig      `mapstructure:"keys"`
}

type DatabaseConfig struct {
	// Backend selects the primary store: bolt or sqlite. bleve keeps the
	// primary store on bolt and serves every list from the search index.
	Backend     string        `mapstructure:"backend"`
	Path        string        `mapstructure:"path"`
	SQLitePath  string        `mapstructure:"sqlite_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
	// RestrictPaths confines the database, index and archive paths to the
	// daybook data and config directories and the temp dir.
	RestrictPaths bool `mapstructure:"restrict_paths"`
}

type ListConfig struct {
	PageSize        int `mapstructure:"page_size"`
	SearchMinLength int `mapstructure:"search_min_length"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type UIConfig struct {
	Colors     UIColors `mapstructure:"colors"`
	DateFormat string   `mapstructure:"date_format"`
	// WordWrap caps the reader width; 0 follows the terminal.
	WordWrap int `mapstructure:"word_wrap"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Highlight string `mapstructure:"highlight"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type MediaConfig struct {
	Darwin        MediaPlayers `mapstructure:"darwin"`
	Linux         MediaPlayers `mapstructure:"linux"`
	Windows       MediaPlayers `mapstructure:"windows"`
	DefaultOpener string       `mapstructure:"default_opener"`
}

type MediaPlayers struct {
	Image []string `mapstructure:"image"`
	Video []string `mapstructure:"video"`
	Audio []string `mapstructure:"audio"`
	PDF   []string `mapstructure:"pdf"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit     string `mapstructure:"quit"`
	Search   string `mapstructure:"search"`
	Refresh  string `mapstructure:"refresh"`
	LoadMore string `mapstructure:"load_more"`
	Open     string `mapstructure:"open"`
	Attach   string `mapstructure:"attachment"`
	Back     string `mapstructure:"back"`
	Help     string `mapstructure:"help"`
}

func defaultConfig() *Config {
	homeDir, _ := homedir.Dir()
	dataDir := filepath.Join(homeDir, ".daybook")

	return &Config{
		Database: DatabaseConfig{
			Backend:     BackendBolt,
			Path:        filepath.Join(dataDir, "daybook.db"),
			SQLitePath:  filepath.Join(dataDir, "daybook.sqlite"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "index.bleve"),
		},
		List: ListConfig{
			PageSize:        20,
			SearchMinLength: 1,
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(dataDir, "daybook.log"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#7AA2F7",
				Secondary: "#9ECE6A",
				Accent:    "#BB9AF7",
				Text:      "#C0CAF5",
				Muted:     "#565F89",
				Highlight: "#E0AF68",
				Error:     "#F7768E",
				Success:   "#9ECE6A",
			},
			DateFormat: "Mon 02",
			WordWrap:   100,
		},
		Media: MediaConfig{
			Darwin: MediaPlayers{
				Image: []string{"open"},
				Video: []string{"iina", "mpv", "open"},
				Audio: []string{"mpv", "open"},
				PDF:   []string{"open"},
			},
			Linux: MediaPlayers{
				Image: []string{"sxiv", "feh", "eog", "xdg-open"},
				Video: []string{"mpv", "vlc", "xdg-open"},
				Audio: []string{"mpv", "vlc", "xdg-open"},
				PDF:   []string{"zathura", "evince", "xdg-open"},
			},
			Windows: MediaPlayers{
				Image: []string{"start"},
				Video: []string{"mpv", "vlc", "start"},
				Audio: []string{"mpv", "vlc", "start"},
				PDF:   []string{"start"},
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:     "q",
				Search:   "/",
				Refresh:  "r",
				LoadMore: "m",
				Open:     "enter",
				Attach:   "o",
				Back:     "esc",
				Help:     "?",
			},
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range sections(cfg) {
		for field, fv := range value {
			v.SetDefault(key+"."+field, fv)
		}
	}
}

// sections flattens cfg into the TOML tables written by Save. Durations are
// strings so the file stays readable.
func sections(cfg *Config) map[string]map[string]any {
	players := func(p MediaPlayers) map[string]any {
		return map[string]any{"image": p.Image, "video": p.Video, "audio": p.Audio, "pdf": p.PDF}
	}
	c := cfg.UI.Colors
	b := cfg.Keys.Bindings
	return map[string]map[string]any{
		"database": {
			"backend":        cfg.Database.Backend,
			"path":           cfg.Database.Path,
			"sqlite_path":    cfg.Database.SQLitePath,
			"timeout":        cfg.Database.Timeout.String(),
			"search_index":   cfg.Database.SearchIndex,
			"restrict_paths": cfg.Database.RestrictPaths,
		},
		"list": {
			"page_size":         cfg.List.PageSize,
			"search_min_length": cfg.List.SearchMinLength,
		},
		"log": {
			"level": cfg.Log.Level,
			"file":  cfg.Log.File,
		},
		"ui": {
			"date_format": cfg.UI.DateFormat,
			"word_wrap":   cfg.UI.WordWrap,
			"colors": map[string]any{
				"primary": c.Primary, "secondary": c.Secondary, "accent": c.Accent,
				"text": c.Text, "muted": c.Muted, "highlight": c.Highlight,
				"error": c.Error, "success": c.Success,
			},
		},
		"media": {
			"darwin":         players(cfg.Media.Darwin),
			"linux":          players(cfg.Media.Linux),
			"windows":        players(cfg.Media.Windows),
			"default_opener": cfg.Media.DefaultOpener,
		},
		"keys": {
			"modifier": cfg.Keys.Modifier,
			"bindings": map[string]any{
				"quit": b.Quit, "search": b.Search, "refresh": b.Refresh,
				"load_more": b.LoadMore, "open": b.Open, "attachment": b.Attach,
				"back": b.Back, "help": b.Help,
			},
		},
	}
}

// DefaultPath is the config file location used when none is given.
func DefaultPath() string {
	homeDir, _ := homedir.Dir()
	return filepath.Join(homeDir, ".config", "daybook", "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DAYBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case BackendBolt, BackendSQLite, BackendBleve:
	default:
		return fmt.Errorf("database.backend: unknown backend %q", c.Database.Backend)
	}
	if c.List.PageSize <= 0 {
		return fmt.Errorf("list.page_size: must be positive, got %d", c.List.PageSize)
	}
	if c.List.SearchMinLength < 1 {
		return fmt.Errorf("list.search_min_length: must be at least 1, got %d", c.List.SearchMinLength)
	}
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SQLitePath = expandPath(cfg.Database.SQLitePath)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()
	for key, value := range sections(config) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
