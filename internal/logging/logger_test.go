package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"playcafe/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testApp = config.AppConfig{Name: "playcafe", Environment: "test", Version: "1.2.3"}

func TestNewOutputs(t *testing.T) {
	cases := []struct {
		name       string
		cfg        config.LoggingConfig
		wantLevel  zerolog.Level
		wantCloser bool
	}{
		{name: "defaults", cfg: config.LoggingConfig{}, wantLevel: zerolog.InfoLevel},
		{name: "stderr debug", cfg: config.LoggingConfig{Level: "debug", Output: "stderr"}, wantLevel: zerolog.DebugLevel},
		{name: "console", cfg: config.LoggingConfig{Level: " WARN ", Format: "console"}, wantLevel: zerolog.WarnLevel},
		{name: "unknown level", cfg: config.LoggingConfig{Level: "chatty"}, wantLevel: zerolog.InfoLevel},
		{
			name:       "file",
			cfg:        config.LoggingConfig{Level: "error", Output: "file", FilePath: filepath.Join(t.TempDir(), "api.log")},
			wantLevel:  zerolog.ErrorLevel,
			wantCloser: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, closer, err := New(tc.cfg, testApp)
			require.NoError(t, err)
			assert.Equal(t, tc.wantLevel, logger.GetLevel())
			if tc.wantCloser {
				require.NotNil(t, closer)
				assert.NoError(t, closer.Close())
			} else {
				assert.Nil(t, closer)
			}
		})
	}
}

func TestNewFileStampsApp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	logger, closer, err := New(config.LoggingConfig{Output: "file", FilePath: path}, testApp)
	require.NoError(t, err)

	logger.Info().Str("booking_id", "b-1").Msg("booking confirmed")
	logger.Debug().Msg("below level")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "playcafe", entry["app"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "b-1", entry["booking_id"])
	assert.Contains(t, entry, "time")
}

func TestNewFileErrors(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Output: "file"}, testApp)
	assert.Error(t, err, "file output without a path")

	missingDir := filepath.Join(t.TempDir(), "nope", "api.log")
	_, _, err = New(config.LoggingConfig{Output: "file", FilePath: missingDir}, testApp)
	assert.Error(t, err)
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	Component(&base, "sweeper").Info().Msg("tick")
	assert.Contains(t, buf.String(), `"component":"sweeper"`)

	assert.NotPanics(t, func() {
		Component(nil, "x").Info().Msg("dropped")
	})
}
