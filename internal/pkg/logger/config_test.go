package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputs(t *testing.T) {
	for _, output := range []string{"console", "file", "both", "stdout"} {
		cfg := DefaultConfig()
		cfg.Output = output
		assert.NoError(t, cfg.Validate(), "output %q", output)
	}

	cfg := DefaultConfig()
	cfg.Output = "syslog"
	assert.Error(t, cfg.Validate())
}

func TestValidateNormalizesStdout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "stdout"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "console", cfg.Output)

	logger, err := New(cfg)
	require.NoError(t, err)
	logger.Info("hello")
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	assert.Error(t, cfg.Validate())
}
