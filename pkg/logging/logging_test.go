package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleLevel(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		debug   bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var console bytes.Buffer

			logger, err := New(Options{Verbose: tt.verbose, Console: &console})
			require.NoError(t, err)
			defer logger.Close()

			logger.Debug("debug record")
			logger.Info("info record", "suite", "single_hazards")

			assert.Contains(t, console.String(), "info record")
			assert.Contains(t, console.String(), "suite=single_hazards")
			assert.Equal(t, tt.debug, strings.Contains(console.String(), "debug record"))
		})
	}
}

func TestNew_JSONFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "hazardbench.log")

	logger, err := New(Options{File: path, Console: &console})
	require.NoError(t, err)

	logger.Debug("file only", "config", "5Stage_Ideal")
	logger.Warn("both")
	require.NoError(t, logger.Close())

	assert.NotContains(t, console.String(), "file only")
	assert.Contains(t, console.String(), "both")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "file only", record["msg"])
	assert.Equal(t, "5Stage_Ideal", record["config"])
	assert.Equal(t, "DEBUG", record["level"])
}

func TestLogger_CloseWithoutFile(t *testing.T) {
	logger, err := New(Options{Console: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.NoError(t, logger.Close())
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
}

func TestExit_ClosesInstalledLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hazardbench.log")
	previous := slog.Default()

	logger, err := Install(Options{File: path, Console: &bytes.Buffer{}})
	require.NoError(t, err)

	code := -1
	exit = func(c int) { code = c }
	t.Cleanup(func() {
		exit = os.Exit
		installed = nil
		slog.SetDefault(previous)
	})

	logger.Error("verification failed")
	file := logger.file
	Exit(3)

	assert.Equal(t, 3, code)
	assert.Nil(t, logger.file)
	assert.ErrorIs(t, file.Close(), os.ErrClosed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "verification failed")
}
