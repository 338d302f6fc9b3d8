package debuglog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LogLevel is the severity of a log line.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // disables all logging
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel maps a config value onto a LogLevel. Unknown values become
// LevelOff so a typo never starts writing a log file.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelOff
	}
}

var (
	mu           sync.Mutex
	currentLevel = LevelOff
	logger       *log.Logger
	logFile      *os.File
)

// DefaultPath is where the log goes when Setup is given no path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".daybook", "daybook.log")
}

// Setup opens the log file and sets the level. With LevelOff no file is
// touched. An empty or missing filePath means DefaultPath.
func Setup(level LogLevel, filePath ...string) error {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = level
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = nil

	if level == LevelOff {
		return nil
	}

	logPath := DefaultPath()
	if len(filePath) > 0 && filePath[0] != "" {
		logPath = filePath[0]
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	logFile = f
	logger = log.New(f, "daybook ", log.LstdFlags|log.Lmicroseconds)
	return nil
}

func GetLevel() LogLevel {
	mu.Lock()
	defer mu.Unlock()
	return currentLevel
}

// Close flushes and closes the log file if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = nil
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func logf(level LogLevel, suffix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level < currentLevel || logger == nil {
		return
	}
	logger.Printf("[%s] %s%s", level, fmt.Sprintf(format, args...), suffix)
}

func Debugf(format string, args ...any) { logf(LevelDebug, "", format, args...) }
func Infof(format string, args ...any)  { logf(LevelInfo, "", format, args...) }
func Warnf(format string, args ...any)  { logf(LevelWarn, "", format, args...) }
func Errorf(format string, args ...any) { logf(LevelError, "", format, args...) }

// Fields are key/value pairs appended to every line of a FieldLogger.
type Fields map[string]any

// FieldLogger logs with a fixed set of fields.
type FieldLogger struct {
	suffix string
}

// WithFields returns a logger whose lines end with the fields, sorted by key.
// Fields are not formatted while logging is off.
func WithFields(fields Fields) *FieldLogger {
	if GetLevel() == LevelOff {
		return &FieldLogger{}
	}
	return &FieldLogger{suffix: formatFields(fields)}
}

// With returns a copy of fl carrying extra fields after the existing ones.
// While logging is off it returns fl unchanged.
func (fl *FieldLogger) With(fields Fields) *FieldLogger {
	if GetLevel() == LevelOff {
		return fl
	}
	extra := formatFields(fields)
	if fl.suffix == "" || extra == "" {
		return &FieldLogger{suffix: fl.suffix + extra}
	}
	return &FieldLogger{suffix: strings.TrimSuffix(fl.suffix, "]") + " " + strings.TrimPrefix(extra, " [")}
}

func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, fields[k])
	}
	return " [" + strings.Join(parts, " ") + "]"
}

func (fl *FieldLogger) Debugf(format string, args ...any) { logf(LevelDebug, fl.suffix, format, args...) }
func (fl *FieldLogger) Infof(format string, args ...any)  { logf(LevelInfo, fl.suffix, format, args...) }
func (fl *FieldLogger) Warnf(format string, args ...any)  { logf(LevelWarn, fl.suffix, format, args...) }
func (fl *FieldLogger) Errorf(format string, args ...any) { logf(LevelError, fl.suffix, format, args...) }
