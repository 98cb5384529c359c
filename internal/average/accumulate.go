package average

import (
	"gonum.org/v1/gonum/stat"

	"github.com/esatel/adcpy/internal/adcp"
)

// Field is one group's bin-averaged product: per grid cell and velocity
// component, the arithmetic mean of the contributing samples, the number of
// contributing samples, and their sample (Bessel-corrected) standard
// deviation. Cells that received no samples hold missing velocity and sd
// with count zero, never numeric zero. Arrays are flat, indexed
// (ix*NZ + iz)*NumComponents + c, following the grid's column-major walk.
type Field struct {
	Grid     *BinGrid
	Velocity []adcp.Value
	Count    []int
	SD       []adcp.Value
}

// NewField allocates an all-missing field over grid.
func NewField(grid *BinGrid) *Field {
	n := grid.NX() * grid.NZ() * adcp.NumComponents
	return &Field{
		Grid:     grid,
		Velocity: make([]adcp.Value, n),
		Count:    make([]int, n),
		SD:       make([]adcp.Value, n),
	}
}

func (f *Field) idx(ix, iz int, c adcp.Component) int {
	return (ix*f.Grid.NZ()+iz)*adcp.NumComponents + int(c)
}

// VelocityAt returns the averaged velocity in cell (ix, iz).
func (f *Field) VelocityAt(ix, iz int, c adcp.Component) adcp.Value {
	return f.Velocity[f.idx(ix, iz, c)]
}

// SetVelocity overwrites the averaged velocity in cell (ix, iz).
func (f *Field) SetVelocity(ix, iz int, c adcp.Component, v adcp.Value) {
	f.Velocity[f.idx(ix, iz, c)] = v
}

// CountAt returns the number of samples that contributed to cell (ix, iz).
func (f *Field) CountAt(ix, iz int, c adcp.Component) int {
	return f.Count[f.idx(ix, iz, c)]
}

// SDAt returns the sample standard deviation in cell (ix, iz).
func (f *Field) SDAt(ix, iz int, c adcp.Component) adcp.Value {
	return f.SD[f.idx(ix, iz, c)]
}

// CellsFilled returns how many cells hold at least one valid component mean.
func (f *Field) CellsFilled() int {
	n := 0
	for ix := 0; ix < f.Grid.NX(); ix++ {
		for iz := 0; iz < f.Grid.NZ(); iz++ {
			for c := adcp.Component(0); c < adcp.NumComponents; c++ {
				if !f.VelocityAt(ix, iz, c).IsMissing() {
					n++
					break
				}
			}
		}
	}
	return n
}

// DepthAveraged returns the depth-averaged velocity of component c in
// column ix, missing when the whole column is missing.
func (f *Field) DepthAveraged(ix int, c adcp.Component) adcp.Value {
	var sum float64
	var n int
	for iz := 0; iz < f.Grid.NZ(); iz++ {
		if v, ok := f.VelocityAt(ix, iz, c).Float(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return adcp.Missing()
	}
	return adcp.Of(sum / float64(n))
}

// Discharge integrates the streamwise (U) component over the grid:
// sum of U × dxy × dz across valid cells, in m³/s.
func (f *Field) Discharge() float64 {
	var q float64
	for ix := 0; ix < f.Grid.NX(); ix++ {
		for iz := 0; iz < f.Grid.NZ(); iz++ {
			if v, ok := f.VelocityAt(ix, iz, adcp.U).Float(); ok {
				q += v * f.Grid.DXY * f.Grid.DZ
			}
		}
	}
	return q
}

// Accumulate assigns every velocity sample from every transect in the group
// to its grid cell and reduces each cell to mean, count and sample standard
// deviation per component. Missing samples contribute to neither mean nor
// count. The reduction is independent of transect order. A cell with a
// single sample reports sd 0; a cell with none stays missing with count 0.
func Accumulate(g *Group, grid *BinGrid) (*Field, error) {
	nx, nz := grid.NX(), grid.NZ()
	samples := make([][]float64, nx*nz*adcp.NumComponents)

	for _, t := range g.Transects {
		for _, e := range t.Ensembles {
			ix, ok := grid.DistIndex(grid.Distance(e.X, e.Y))
			if !ok {
				continue
			}
			for b, z := range e.BinElevation {
				iz, ok := grid.ElevIndex(z)
				if !ok {
					continue
				}
				for c := adcp.Component(0); c < adcp.NumComponents; c++ {
					if v, ok := e.Velocity[b][c].Float(); ok {
						i := (ix*nz+iz)*adcp.NumComponents + int(c)
						samples[i] = append(samples[i], v)
					}
				}
			}
		}
	}

	f := NewField(grid)
	for i, vals := range samples {
		switch len(vals) {
		case 0:
			// missing velocity, missing sd, count 0
		case 1:
			f.Velocity[i] = adcp.Of(vals[0])
			f.Count[i] = 1
			f.SD[i] = adcp.Of(0)
		default:
			mean, sd := stat.MeanStdDev(vals, nil)
			f.Velocity[i] = adcp.Of(mean)
			f.Count[i] = len(vals)
			f.SD[i] = adcp.Of(sd)
		}
	}
	return f, nil
}
