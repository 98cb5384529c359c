package average

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		mod  func(Config) Config
	}{
		{"zero dxy", func(c Config) Config { return c.WithResolution(0, 0.25) }},
		{"negative dz", func(c Config) Config { return c.WithResolution(2, -1) }},
		{"negative spatial gap", func(c Config) Config { return c.WithGaps(-1, 20) }},
		{"negative temporal gap", func(c Config) Config { return c.WithGaps(30, -1) }},
		{"zero group size", func(c Config) Config { return c.WithMaxGroupSize(0) }},
		{"unknown rotation", func(c Config) Config { return c.WithRotation(RotationMode(99)) }},
		{"negative sd drop", func(c Config) Config { return c.WithSDDrop(-1, false) }},
		{"even kernel", func(c Config) Config { return c.WithSmoothKernel(4) }},
		{"negative workers", func(c Config) Config { return c.WithWorkers(-1) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.mod(DefaultConfig()).Validate())
		})
	}
}

func TestConfigSmallKernelsAllowed(t *testing.T) {
	// 0 and 1 disable smoothing and need not be odd-checked.
	assert.NoError(t, DefaultConfig().WithSmoothKernel(0).Validate())
	assert.NoError(t, DefaultConfig().WithSmoothKernel(1).Validate())
	assert.NoError(t, DefaultConfig().WithSmoothKernel(3).Validate())
}

func TestWithSettersChain(t *testing.T) {
	cfg := DefaultConfig().
		WithResolution(1.0, 0.1).
		WithGaps(10, 5).
		WithMaxGroupSize(3).
		WithRotation(RotationNone).
		WithSDDrop(2.5, false).
		WithSmoothKernel(3).
		WithWorkers(4)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1.0, cfg.DXY)
	assert.Equal(t, 0.1, cfg.DZ)
	assert.Equal(t, 10.0, cfg.MaxGapMeters)
	assert.Equal(t, 5.0, cfg.MaxGapMin)
	assert.Equal(t, 3, cfg.MaxGroupSize)
	assert.Equal(t, RotationNone, cfg.Rotation)
	assert.Equal(t, 2.5, cfg.SDDrop)
	assert.False(t, cfg.InterpHoles)
	assert.Equal(t, 3, cfg.SmoothKernel)
	assert.Equal(t, 4, cfg.Workers)
}
