package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	logger, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))

	debug, err := New(Options{Debug: true})
	require.NoError(t, err)
	assert.True(t, debug.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_Annotations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Annotations: &buf})
	require.NoError(t, err)

	logger.Info("Pulling source image")
	logger.Warn("Could not retrieve image info")

	assert.Equal(t, "::warning::Could not retrieve image info\n", buf.String())
}
