package average

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/esatel/adcpy/internal/adcp"
)

// Axis selects the direction a profile statistic runs along.
type Axis int

const (
	// AxisElevation works down each vertical column of the grid.
	AxisElevation Axis = iota
	// AxisEnsemble works across each horizontal row of the grid.
	AxisEnsemble
)

// String names the axis for diagnostics.
func (a Axis) String() string {
	if a == AxisElevation {
		return "elevation"
	}
	return "ensemble"
}

// SDDrop marks as missing every velocity sample deviating from its
// along-axis mean by more than sd sample standard deviations, per component
// and per profile. Both statistics are Bessel-corrected, matching the
// accumulator, so the threshold is meaningful against the stored SD arrays.
// When interpHoles is set, holes opened by this pass are immediately
// re-filled by linear interpolation between the nearest valid neighbours
// along the same axis; holes at profile edges and pre-existing missing
// cells are never filled.
func SDDrop(f *Field, sd float64, axis Axis, interpHoles bool) {
	if sd <= 0 {
		return
	}
	nProfiles, profileLen := f.Grid.NX(), f.Grid.NZ()
	if axis == AxisEnsemble {
		nProfiles, profileLen = profileLen, nProfiles
	}

	vals := make([]float64, 0, profileLen)
	line := make([]adcp.Value, profileLen)
	for c := adcp.Component(0); c < adcp.NumComponents; c++ {
		for p := 0; p < nProfiles; p++ {
			vals = vals[:0]
			for q := 0; q < profileLen; q++ {
				ix, iz := axisCell(axis, p, q)
				line[q] = f.VelocityAt(ix, iz, c)
				if v, ok := line[q].Float(); ok {
					vals = append(vals, v)
				}
			}
			if len(vals) < 2 {
				continue
			}
			mean, stddev := stat.MeanStdDev(vals, nil)
			if stddev == 0 {
				continue
			}

			var holes []int
			for q := 0; q < profileLen; q++ {
				v, ok := line[q].Float()
				if !ok {
					continue
				}
				if v < mean-sd*stddev || v > mean+sd*stddev {
					line[q] = adcp.Missing()
					holes = append(holes, q)
				}
			}
			if interpHoles {
				interpolateHoles(line, holes)
			}
			for q := 0; q < profileLen; q++ {
				ix, iz := axisCell(axis, p, q)
				f.SetVelocity(ix, iz, c, line[q])
			}
		}
	}
}

// axisCell maps (profile, position-along-profile) to grid coordinates.
func axisCell(axis Axis, p, q int) (ix, iz int) {
	if axis == AxisElevation {
		return p, q
	}
	return q, p
}

// interpolateHoles fills the listed hole positions of line by linear
// interpolation between the nearest valid samples on either side. Holes
// with no valid neighbour on one side stay missing.
func interpolateHoles(line []adcp.Value, holes []int) {
	for _, h := range holes {
		lo, hi := -1, -1
		var loV, hiV float64
		for i := h - 1; i >= 0; i-- {
			if v, ok := line[i].Float(); ok {
				lo, loV = i, v
				break
			}
		}
		for i := h + 1; i < len(line); i++ {
			if v, ok := line[i].Float(); ok {
				hi, hiV = i, v
				break
			}
		}
		if lo < 0 || hi < 0 {
			continue
		}
		t := float64(h-lo) / float64(hi-lo)
		line[h] = adcp.Of(loV + t*(hiV-loV))
	}
}

// KernelSmooth applies a square box filter of odd side length k to each
// velocity component field, in place. Missing cells are excluded from each
// window average and a window with no valid members stays missing. k of 1
// or less is a no-op; even k is a configuration error caught by Validate.
func KernelSmooth(f *Field, k int) error {
	if k <= 1 {
		return nil
	}
	if k%2 == 0 {
		return fmt.Errorf("kernel size must be odd, got %d", k)
	}
	nx, nz := f.Grid.NX(), f.Grid.NZ()
	half := k / 2

	out := make([]adcp.Value, len(f.Velocity))
	for c := adcp.Component(0); c < adcp.NumComponents; c++ {
		for ix := 0; ix < nx; ix++ {
			for iz := 0; iz < nz; iz++ {
				var sum float64
				var n int
				for dx := -half; dx <= half; dx++ {
					for dz := -half; dz <= half; dz++ {
						jx, jz := ix+dx, iz+dz
						if jx < 0 || jx >= nx || jz < 0 || jz >= nz {
							continue
						}
						if v, ok := f.VelocityAt(jx, jz, c).Float(); ok {
							sum += v
							n++
						}
					}
				}
				i := f.idx(ix, iz, c)
				if n == 0 {
					out[i] = adcp.Missing()
				} else {
					out[i] = adcp.Of(sum / float64(n))
				}
			}
		}
	}
	f.Velocity = out
	return nil
}
