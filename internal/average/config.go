// Package average implements the spatiotemporal grouping and bin-averaging
// engine for repeated ADCP transect observations: grouping transects that
// match in space and time, projecting their velocity samples onto a shared
// distance × elevation grid, accumulating per-bin statistics, and refining
// the averaged field (rotation, outlier rejection, hole interpolation,
// kernel smoothing).
package average

import "fmt"

// Config holds every option of an averaging run. Build one with
// DefaultConfig and the With* setters, then Validate before Run; a run never
// starts with an invalid configuration.
type Config struct {
	// Bin-averaging parameters
	DXY          float64 // horizontal resolution of averaging bins (m)
	DZ           float64 // vertical resolution of averaging bins (m)
	MaxGapMeters float64 // max distance between adjacent observations (m)
	MaxGapMin    float64 // max time between adjacent observations (minutes)
	MaxGroupSize int     // max observations averaged together

	// Post-average refinement
	Rotation     RotationMode
	SDDrop       float64 // stddev threshold for sample dropping; 0 disables
	InterpHoles  bool    // interpolate holes left by sd dropping
	SmoothKernel int     // odd box-filter side length; 0 or 1 disables

	// Output products
	SaveNetCDF      bool
	SaveCSV         bool
	PlotXY          bool
	PlotAvgNSD      bool
	PlotVectors     bool
	PlotSecondary   bool
	PlotUVWArray    bool
	PlotFlowSummary bool
	SavePlots bool
	// ShowPlots renders interactive (HTML) versions of plot products for
	// viewing in a browser, alongside the static PNGs.
	ShowPlots bool

	// Workers bounds concurrent group processing. 1 processes groups
	// sequentially in group order; 0 means 1.
	Workers int
}

// DefaultConfig returns the canonical averaging options: 2 m × 0.25 m bins,
// 30 m / 20 minute adjacency, groups of up to six transects, Rozovski
// rotation, 3-sigma dropping with hole interpolation, 5-cell smoothing, and
// every output product enabled.
func DefaultConfig() Config {
	return Config{
		DXY:          2.0,
		DZ:           0.25,
		MaxGapMeters: 30.0,
		MaxGapMin:    20.0,
		MaxGroupSize: 6,

		Rotation:     RotationRozovski,
		SDDrop:       3.0,
		InterpHoles:  true,
		SmoothKernel: 5,

		SaveNetCDF:      true,
		SaveCSV:         true,
		PlotXY:          true,
		PlotAvgNSD:      true,
		PlotVectors:     true,
		PlotSecondary:   true,
		PlotUVWArray:    true,
		PlotFlowSummary: true,
		SavePlots:       true,
		ShowPlots:       false,

		Workers: 1,
	}
}

// Validate checks the configuration. Errors here are fatal: they are
// detected before any group is processed.
func (c Config) Validate() error {
	if c.DXY <= 0 {
		return fmt.Errorf("DXY must be positive, got %g", c.DXY)
	}
	if c.DZ <= 0 {
		return fmt.Errorf("DZ must be positive, got %g", c.DZ)
	}
	if c.MaxGapMeters < 0 {
		return fmt.Errorf("MaxGapMeters must be non-negative, got %g", c.MaxGapMeters)
	}
	if c.MaxGapMin < 0 {
		return fmt.Errorf("MaxGapMin must be non-negative, got %g", c.MaxGapMin)
	}
	if c.MaxGroupSize < 1 {
		return fmt.Errorf("MaxGroupSize must be at least 1, got %d", c.MaxGroupSize)
	}
	if !c.Rotation.valid() {
		return fmt.Errorf("unknown rotation mode %d", int(c.Rotation))
	}
	if c.SDDrop < 0 {
		return fmt.Errorf("SDDrop must be non-negative, got %g", c.SDDrop)
	}
	if c.SmoothKernel >= 2 && c.SmoothKernel%2 == 0 {
		return fmt.Errorf("SmoothKernel must be odd, got %d", c.SmoothKernel)
	}
	if c.Workers < 0 {
		return fmt.Errorf("Workers must be non-negative, got %d", c.Workers)
	}
	return nil
}

// WithResolution sets the horizontal and vertical bin sizes.
func (c Config) WithResolution(dxy, dz float64) Config {
	c.DXY = dxy
	c.DZ = dz
	return c
}

// WithGaps sets the spatial and temporal adjacency maxima.
func (c Config) WithGaps(meters, minutes float64) Config {
	c.MaxGapMeters = meters
	c.MaxGapMin = minutes
	return c
}

// WithMaxGroupSize sets the maximum number of transects averaged together.
func (c Config) WithMaxGroupSize(n int) Config {
	c.MaxGroupSize = n
	return c
}

// WithRotation sets the post-average rotation mode.
func (c Config) WithRotation(m RotationMode) Config {
	c.Rotation = m
	return c
}

// WithSDDrop sets the standard-deviation drop threshold and whether holes
// left by dropping are interpolated.
func (c Config) WithSDDrop(sd float64, interpHoles bool) Config {
	c.SDDrop = sd
	c.InterpHoles = interpHoles
	return c
}

// WithSmoothKernel sets the box-filter side length.
func (c Config) WithSmoothKernel(k int) Config {
	c.SmoothKernel = k
	return c
}

// WithWorkers sets the group worker-pool size.
func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}
