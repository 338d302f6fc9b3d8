package debuglog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelOff, "OFF"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{" info ", LevelInfo},
		{"warn", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"off", LevelOff},
		{"verbose", LevelOff},
		{"", LevelOff},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, Close())
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestSetupFiltersByLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")
	require.NoError(t, Setup(LevelInfo, logPath))
	assert.Equal(t, LevelInfo, GetLevel())

	Debugf("debug message")
	Infof("info message")
	Warnf("warn message")
	Errorf("error message")

	content := readLog(t, logPath)
	assert.NotContains(t, content, "debug message")
	assert.Contains(t, content, "[INFO] info message")
	assert.Contains(t, content, "[WARN] warn message")
	assert.Contains(t, content, "[ERROR] error message")
	assert.Contains(t, content, "daybook ")
}

func TestSetupOffWritesNothing(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "off.log")
	require.NoError(t, Setup(LevelOff, logPath))
	assert.Equal(t, LevelOff, GetLevel())

	Errorf("not written")

	_, err := os.Stat(logPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFieldLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "fields.log")
	require.NoError(t, Setup(LevelDebug, logPath))

	logger := WithFields(Fields{"list": "diary", "kind": "ADD", "count": 42})
	logger.Infof("load finished")
	logger.With(Fields{"gen": 3}).Debugf("extended")
	WithFields(nil).With(Fields{"only": true}).Warnf("bare")

	content := readLog(t, logPath)
	assert.Contains(t, content, "load finished [count=42 kind=ADD list=diary]")
	assert.Contains(t, content, "extended [count=42 kind=ADD list=diary gen=3]")
	assert.Contains(t, content, "bare [only=true]")
}

func TestFieldLoggerSkipsFieldsWhenOff(t *testing.T) {
	require.NoError(t, Setup(LevelOff))
	assert.Equal(t, LevelOff, GetLevel())

	base := WithFields(Fields{"list": "diary"})
	assert.Equal(t, "", base.suffix)
	assert.Same(t, base, base.With(Fields{"gen": 1}))
	base.Infof("dropped")
}
