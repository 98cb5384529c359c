package average

import (
	"time"

	"github.com/esatel/adcpy/internal/adcp"
	"github.com/esatel/adcpy/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

var t0 = time.Date(2009, 1, 6, 10, 0, 0, 0, time.UTC)

func testSecond(i int) time.Duration { return time.Duration(i) * time.Second }

// uniformTransect builds a transect of ensembles walking east along y=yOff
// at the given x positions, one second apart, with every depth bin at the
// given elevations holding velocity (u, v, w).
func uniformTransect(id string, start time.Time, xs []float64, yOff float64, elevs []float64, u, v, w float64) *adcp.Transect {
	t := &adcp.Transect{ID: id}
	for i, x := range xs {
		e := adcp.Ensemble{
			Time:         start.Add(time.Duration(i) * time.Second),
			X:            x,
			Y:            yOff,
			BinElevation: elevs,
			Velocity:     make([][adcp.NumComponents]adcp.Value, len(elevs)),
		}
		for b := range elevs {
			e.Velocity[b] = [adcp.NumComponents]adcp.Value{adcp.Of(u), adcp.Of(v), adcp.Of(w)}
		}
		t.Ensembles = append(t.Ensembles, e)
	}
	return t
}

// spanXs returns n positions from 0 to span inclusive.
func spanXs(n int, span float64) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = span * float64(i) / float64(n-1)
	}
	return xs
}

// singleSampleTransect walks the same three-point track as its siblings
// but only the first ensemble carries a depth bin, so each transect
// contributes exactly one sample per component to one cell of the grid.
func singleSampleTransect(id string, start time.Time, u float64) *adcp.Transect {
	t := &adcp.Transect{ID: id}
	for i, x := range []float64{0, 10, 20} {
		e := adcp.Ensemble{
			Time: start.Add(time.Duration(i) * time.Second),
			X:    x,
			Y:    0,
		}
		if i == 0 {
			e.BinElevation = []float64{-1.0}
			e.Velocity = [][adcp.NumComponents]adcp.Value{{adcp.Of(u), adcp.Of(u), adcp.Of(u)}}
		}
		t.Ensembles = append(t.Ensembles, e)
	}
	return t
}
