package validation

import (
	"os"
	"path/filepath"
	"strings"
)

// PathHandler resolves the paths daybook opens, falling back to the default
// locations under ~/.daybook.
type PathHandler struct {
	validator *FilePathValidator
}

func NewSecurePathHandler() *PathHandler {
	return &PathHandler{validator: NewFilePathValidator()}
}

func NewPermissivePathHandler() *PathHandler {
	return &PathHandler{validator: NewPermissiveFilePathValidator()}
}

func dataPath(name string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".daybook", name), nil
}

func (ph *PathHandler) file(userPath, fallback string) (string, error) {
	if userPath == "" {
		p, err := dataPath(fallback)
		if err != nil {
			return "", err
		}
		userPath = p
	}
	return ph.validator.ValidateFile(userPath)
}

// DBPath validates the bbolt database path.
func (ph *PathHandler) DBPath(userPath string) (string, error) {
	return ph.file(userPath, "daybook.db")
}

// SQLitePath validates the SQLite database path.
func (ph *PathHandler) SQLitePath(userPath string) (string, error) {
	return ph.file(userPath, "daybook.sqlite")
}

// IndexPath validates the bleve index path. Indexes are directories.
func (ph *PathHandler) IndexPath(userPath string) (string, error) {
	if userPath == "" {
		p, err := dataPath("index.bleve")
		if err != nil {
			return "", err
		}
		userPath = p
	}
	return ph.validator.ValidateDirectory(userPath, false)
}

// ArchivePath validates an import or export file and reports its format
// from the extension: "toml" or "json". Anything else is treated as TOML.
func (ph *PathHandler) ArchivePath(userPath string) (path, format string, err error) {
	path, err = ph.validator.ValidateFile(userPath)
	if err != nil {
		return "", "", err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return path, "json", nil
	}
	return path, "toml", nil
}

// EnsureDirectory validates and creates a directory.
func (ph *PathHandler) EnsureDirectory(path string) (string, error) {
	return ph.validator.ValidateDirectory(path, true)
}
