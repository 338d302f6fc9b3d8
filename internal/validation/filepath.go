package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath     = errors.New("path cannot be empty")
	ErrPathTooLong   = errors.New("path too long")
	ErrUnsafePath    = errors.New("unsafe path")
	ErrOutsideRoots  = errors.New("path not within allowed directories")
	ErrNotADirectory = errors.New("not a directory")
	ErrIsADirectory  = errors.New("is a directory")
)

// FilePathValidator checks paths handed to daybook before any file is
// opened or created.
type FilePathValidator struct {
	// AllowedBaseDirs restricts paths to these directories. Empty allows any.
	AllowedBaseDirs []string
	// AllowHomeExpansion permits a leading "~/".
	AllowHomeExpansion bool
	// AllowRelativePaths keeps relative paths relative instead of resolving
	// them against the working directory.
	AllowRelativePaths bool
	MaxPathLength      int
}

// NewFilePathValidator restricts paths to the daybook data and config
// directories and the temp dir.
func NewFilePathValidator() *FilePathValidator {
	homeDir, _ := os.UserHomeDir()
	return &FilePathValidator{
		AllowedBaseDirs: []string{
			filepath.Join(homeDir, ".daybook"),
			filepath.Join(homeDir, ".config", "daybook"),
			os.TempDir(),
		},
		AllowHomeExpansion: true,
		MaxPathLength:      4096,
	}
}

// NewPermissiveFilePathValidator accepts any directory. Archive import and
// export use it since archives live wherever the user keeps them.
func NewPermissiveFilePathValidator() *FilePathValidator {
	return &FilePathValidator{
		AllowHomeExpansion: true,
		AllowRelativePaths: true,
		MaxPathLength:      4096,
	}
}

// ValidateAndSanitize rejects unsafe input and returns the cleaned path.
func (v *FilePathValidator) ValidateAndSanitize(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("%w (max %d characters)", ErrPathTooLong, v.MaxPathLength)
	}
	if err := checkCharacters(path); err != nil {
		return "", err
	}

	normalized, err := v.normalize(path)
	if err != nil {
		return "", err
	}
	if err := v.checkRoots(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

func checkCharacters(path string) error {
	for _, r := range path {
		if r == 0 {
			return fmt.Errorf("%w: contains null bytes", ErrUnsafePath)
		}
		if r < 32 && r != '\t' {
			return fmt.Errorf("%w: contains control characters", ErrUnsafePath)
		}
	}
	for _, seq := range []string{"../", "..\\", "//", "\\\\"} {
		if strings.Contains(path, seq) {
			return fmt.Errorf("%w: contains %q", ErrUnsafePath, seq)
		}
	}
	if path == ".." || strings.HasSuffix(path, "/..") {
		return fmt.Errorf("%w: directory traversal", ErrUnsafePath)
	}
	return nil
}

func (v *FilePathValidator) normalize(path string) (string, error) {
	switch {
	case v.AllowHomeExpansion && strings.HasPrefix(path, "~/"):
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	case strings.HasPrefix(path, "~"):
		return "", fmt.Errorf("%w: tilde expansion not allowed here", ErrUnsafePath)
	}

	if !v.AllowRelativePaths && !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot make path absolute: %w", err)
		}
		path = abs
	}
	return filepath.Clean(path), nil
}

func (v *FilePathValidator) checkRoots(path string) error {
	if len(v.AllowedBaseDirs) == 0 {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path: %w", err)
	}
	for _, base := range v.AllowedBaseDirs {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absBase, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrOutsideRoots, v.AllowedBaseDirs)
}

// ValidateDirectory validates path as a directory, creating it when asked.
// A missing directory is fine when create is false.
func (v *FilePathValidator) ValidateDirectory(path string, create bool) (string, error) {
	validated, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(validated)
	switch {
	case os.IsNotExist(err):
		if create {
			if err := os.MkdirAll(validated, 0o755); err != nil {
				return "", fmt.Errorf("failed to create directory: %w", err)
			}
		}
	case err != nil:
		return "", fmt.Errorf("checking directory: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("%s: %w", validated, ErrNotADirectory)
	}
	return validated, nil
}

// ValidateFile validates path as a regular file location. The file itself
// need not exist yet.
func (v *FilePathValidator) ValidateFile(path string) (string, error) {
	validated, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(validated); err == nil && info.IsDir() {
		return "", fmt.Errorf("%s: %w", validated, ErrIsADirectory)
	}
	return validated, nil
}

// IsPathSafe is the quick check used on attachment paths read from records.
func IsPathSafe(path string) bool {
	return len(path) <= 4096 && checkCharacters(path) == nil
}
