package media

import (
	_ "embed"
	"path"
	"runtime"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed types.toml
var typesTOML []byte

// Type is the kind of attachment, picked by file extension.
type Type int

const (
	TypeUnknown Type = iota
	TypeImage
	TypeVideo
	TypeAudio
	TypePDF
)

func (t Type) String() string {
	switch t {
	case TypeImage:
		return "image"
	case TypeVideo:
		return "video"
	case TypeAudio:
		return "audio"
	case TypePDF:
		return "pdf"
	default:
		return "unknown"
	}
}

type typeConfig struct {
	Extensions []string `toml:"extensions"`
}

type platformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

type typesConfig struct {
	Image     typeConfig                `toml:"image"`
	Video     typeConfig                `toml:"video"`
	Audio     typeConfig                `toml:"audio"`
	PDF       typeConfig                `toml:"pdf"`
	Platforms map[string]platformConfig `toml:"platforms"`
}

// TypeDetector classifies attachment references.
type TypeDetector struct {
	config typesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var cfg typesConfig
	if err := toml.Unmarshal(typesTOML, &cfg); err != nil {
		return nil, err
	}
	return &TypeDetector{config: cfg}, nil
}

// DetectType looks at the extension of a path or URL, ignoring any query
// string or fragment.
func (d *TypeDetector) DetectType(ref string) Type {
	lower := strings.ToLower(ref)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	ext := strings.TrimPrefix(path.Ext(lower), ".")
	if ext == "" {
		return TypeUnknown
	}

	for _, c := range []struct {
		t   Type
		cfg typeConfig
	}{
		{TypeImage, d.config.Image},
		{TypeVideo, d.config.Video},
		{TypeAudio, d.config.Audio},
		{TypePDF, d.config.PDF},
	} {
		if slices.Contains(c.cfg.Extensions, ext) {
			return c.t
		}
	}
	return TypeUnknown
}

// DefaultOpener is the platform's generic "open this file" command.
func (d *TypeDetector) DefaultOpener() string {
	if p, ok := d.config.Platforms[runtime.GOOS]; ok {
		return p.DefaultOpener
	}
	if p, ok := d.config.Platforms["fallback"]; ok {
		return p.DefaultOpener
	}
	return "open"
}
