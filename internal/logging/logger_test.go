package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_JSONWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "pinpoint.log")

	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("export finished", zap.Int("comments", 3))
	_ = logger.Sync()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"export finished"`)
	assert.Contains(t, string(content), `"comments":3`)
	assert.Contains(t, string(content), `"logger":"pinpoint"`)
	assert.NotContains(t, string(content), "hidden")
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	assert.EqualError(t, err, `log format: unsupported value "xml"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"":        zap.InfoLevel,
		"DEBUG":   zap.DebugLevel,
		"warning": zap.WarnLevel,
		"error":   zap.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
