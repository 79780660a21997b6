package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("disabled needs nothing", func(t *testing.T) {
		require.NoError(t, (&Config{}).Validate())
	})

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing service name", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.ServiceName = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("bad protocol", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.Protocol = "udp"
		require.Error(t, cfg.Validate())
	})

	t.Run("sampling rate out of range", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.SamplingRate = 1.5
		require.Error(t, cfg.Validate())
	})
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), &Config{}, nil)
	require.NoError(t, err)
	require.NotNil(t, tel)
	assert.False(t, tel.Degraded())

	// Disabled instance shuts down and flushes cleanly.
	require.NoError(t, tel.Shutdown(context.Background()))
	require.NoError(t, tel.ForceFlush(context.Background()))
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	tel, err := New(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.False(t, tel.Degraded())
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "collector:4318", stripScheme("https://collector:4318"))
	assert.Equal(t, "collector:4318", stripScheme("http://collector:4318"))
	assert.Equal(t, "collector:4318", stripScheme("collector:4318"))
}
