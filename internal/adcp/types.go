// Package adcp defines the data model for ADCP transect surveys: the
// optional Value sample type, time-stamped ensembles, and completed
// transect observations as produced by the external preprocessing stage.
package adcp

import (
	"fmt"
	"time"
)

// Component indexes one velocity component of a sample.
type Component int

const (
	// U is the east (or streamwise, after rotation) component.
	U Component = iota
	// V is the north (or cross-stream, after rotation) component.
	V
	// W is the vertical component.
	W

	// NumComponents is the number of velocity components per sample.
	NumComponents = 3
)

// String returns the single-letter component name used in output file names.
func (c Component) String() string {
	switch c {
	case U:
		return "U"
	case V:
		return "V"
	case W:
		return "W"
	}
	return fmt.Sprintf("Component(%d)", int(c))
}

// Ensemble is one time-stamped vertical profile from a single ADCP ping.
// BinElevation and Velocity are parallel: Velocity[i] is the U/V/W sample
// measured at elevation BinElevation[i]. Elevations are metres relative to
// the survey datum (negative below), not raw depths, so transects taken at
// different stage can be stacked.
type Ensemble struct {
	Time         time.Time
	X, Y         float64 // projected horizontal position (m)
	BinElevation []float64
	Velocity     [][NumComponents]Value
}

// Transect is one completed survey pass across the channel. It is immutable
// once produced by preprocessing; the averaging pipeline only reads it.
// Transects may differ in ensemble count, vertical bin count and depth
// coverage, and the pipeline must tolerate all of that.
type Transect struct {
	ID        string
	Ensembles []Ensemble
}

// Start returns the timestamp of the first ensemble.
func (t *Transect) Start() time.Time {
	if len(t.Ensembles) == 0 {
		return time.Time{}
	}
	return t.Ensembles[0].Time
}

// End returns the timestamp of the last ensemble.
func (t *Transect) End() time.Time {
	if len(t.Ensembles) == 0 {
		return time.Time{}
	}
	return t.Ensembles[len(t.Ensembles)-1].Time
}

// MeanPosition returns the centroid of the transect's ensemble positions,
// the representative point used for spatial adjacency between passes.
func (t *Transect) MeanPosition() (x, y float64) {
	if len(t.Ensembles) == 0 {
		return 0, 0
	}
	for _, e := range t.Ensembles {
		x += e.X
		y += e.Y
	}
	n := float64(len(t.Ensembles))
	return x / n, y / n
}

// Validate checks that the transect carries the spatial and temporal
// metadata the grouping engine needs. Transects failing validation are
// excluded from grouping and reported by ID, never silently dropped.
func (t *Transect) Validate() error {
	if len(t.Ensembles) == 0 {
		return fmt.Errorf("transect %q: no ensembles", t.ID)
	}
	if t.Start().IsZero() || t.End().IsZero() {
		return fmt.Errorf("transect %q: missing ensemble timestamps", t.ID)
	}
	for i, e := range t.Ensembles {
		if len(e.Velocity) != len(e.BinElevation) {
			return fmt.Errorf("transect %q: ensemble %d has %d velocity bins but %d elevations",
				t.ID, i, len(e.Velocity), len(e.BinElevation))
		}
	}
	return nil
}
