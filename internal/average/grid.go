package average

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Projector chooses the one-dimensional horizontal axis that a group's
// ensemble positions are projected onto. The same axis is used for every
// transect in the group so their samples land on a common distance scale.
type Projector interface {
	// Axis returns a point on the projection line and its unit direction
	// for the given ensemble positions.
	Axis(xs, ys []float64) (x0, y0, ux, uy float64, err error)
}

// PrincipalAxisProjector fits the dominant axis of the ensemble position
// cloud: the line through the centroid along the leading eigenvector of the
// position covariance. This is the default projection; it needs no
// designated reference transect and is stable under shuffled input order.
type PrincipalAxisProjector struct{}

// Axis implements Projector.
func (PrincipalAxisProjector) Axis(xs, ys []float64) (x0, y0, ux, uy float64, err error) {
	if len(xs) < 2 {
		return 0, 0, 0, 0, fmt.Errorf("principal axis needs at least 2 positions, got %d", len(xs))
	}
	mx := stat.Mean(xs, nil)
	my := stat.Mean(ys, nil)
	sxx := stat.Variance(xs, nil)
	syy := stat.Variance(ys, nil)
	sxy := stat.Covariance(xs, ys, nil)
	if sxx+syy == 0 {
		return 0, 0, 0, 0, fmt.Errorf("degenerate geometry: all %d positions coincide", len(xs))
	}
	// Orientation of the leading eigenvector of [[sxx,sxy],[sxy,syy]].
	theta := 0.5 * math.Atan2(2*sxy, sxx-syy)
	return mx, my, math.Cos(theta), math.Sin(theta), nil
}

// EndpointProjector projects onto the straight line between the first and
// last ensemble of the earliest transect. Useful when one pass should act
// as the reference line for the whole group.
type EndpointProjector struct{}

// Axis implements Projector. The first and last positions passed in are
// taken as the line endpoints.
func (EndpointProjector) Axis(xs, ys []float64) (x0, y0, ux, uy float64, err error) {
	if len(xs) < 2 {
		return 0, 0, 0, 0, fmt.Errorf("endpoint line needs at least 2 positions, got %d", len(xs))
	}
	dx := xs[len(xs)-1] - xs[0]
	dy := ys[len(ys)-1] - ys[0]
	n := math.Hypot(dx, dy)
	if n == 0 {
		return 0, 0, 0, 0, fmt.Errorf("degenerate geometry: transect endpoints coincide")
	}
	return xs[0], ys[0], dx / n, dy / n, nil
}

// BinGrid defines the common distance × elevation bins for one group. Bins
// are evenly spaced; Dist and Elev hold bin centres. The projection axis is
// retained so ensembles can be placed on the grid and so the "normal"
// rotation mode knows the transect line orientation. Immutable once built.
type BinGrid struct {
	Dist []float64 // horizontal bin centres (m along projection axis)
	Elev []float64 // vertical bin centres (m elevation)
	DXY  float64
	DZ   float64

	// Projection axis: origin and unit direction.
	X0, Y0, UX, UY float64

	distLo float64 // lower edge of first distance bin
	elevLo float64 // lower edge of first elevation bin
}

// NX returns the number of horizontal bins.
func (g *BinGrid) NX() int { return len(g.Dist) }

// NZ returns the number of vertical bins.
func (g *BinGrid) NZ() int { return len(g.Elev) }

// Distance projects a position onto the grid axis.
func (g *BinGrid) Distance(x, y float64) float64 {
	return (x-g.X0)*g.UX + (y-g.Y0)*g.UY
}

// DistIndex maps a projected distance to its bin, edge-inclusive with ties
// at interior edges resolved toward the lower-indexed bin.
func (g *BinGrid) DistIndex(d float64) (int, bool) {
	return binIndex(d, g.distLo, g.DXY, len(g.Dist))
}

// ElevIndex maps an elevation to its bin.
func (g *BinGrid) ElevIndex(z float64) (int, bool) {
	return binIndex(z, g.elevLo, g.DZ, len(g.Elev))
}

// binIndex places v into n bins of width dv starting at lo. Interval
// membership is (lo, hi] per bin so a sample exactly on an interior edge
// joins the lower-indexed bin; the first bin additionally includes its own
// lower edge.
func binIndex(v, lo, dv float64, n int) (int, bool) {
	if v < lo || v > lo+dv*float64(n) {
		return 0, false
	}
	i := int(math.Ceil((v-lo)/dv)) - 1
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i, true
}

// BuildGrid computes the common bin grid covering the group's combined
// spatial footprint at resolution dxy × dz. Half a bin of margin is added
// on each side so samples at the extents cannot fall off the grid through
// float rounding. A group whose positions or elevations have zero extent is
// a degenerate-geometry error; that group is skipped, not crashed on.
func BuildGrid(g *Group, dxy, dz float64, proj Projector) (*BinGrid, error) {
	var xs, ys []float64
	for _, t := range g.Transects {
		for _, e := range t.Ensembles {
			xs = append(xs, e.X)
			ys = append(ys, e.Y)
		}
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("group %d: no ensembles", g.Index)
	}

	x0, y0, ux, uy, err := proj.Axis(xs, ys)
	if err != nil {
		return nil, fmt.Errorf("group %d: %w", g.Index, err)
	}

	dMin, dMax := math.Inf(1), math.Inf(-1)
	zMin, zMax := math.Inf(1), math.Inf(-1)
	for _, t := range g.Transects {
		for _, e := range t.Ensembles {
			d := (e.X-x0)*ux + (e.Y-y0)*uy
			dMin = math.Min(dMin, d)
			dMax = math.Max(dMax, d)
			for _, z := range e.BinElevation {
				zMin = math.Min(zMin, z)
				zMax = math.Max(zMax, z)
			}
		}
	}
	if math.IsInf(zMin, 1) {
		return nil, fmt.Errorf("group %d: no depth bins in any ensemble", g.Index)
	}
	if dMax-dMin == 0 {
		return nil, fmt.Errorf("group %d: degenerate geometry: zero horizontal extent", g.Index)
	}

	grid := &BinGrid{
		DXY: dxy, DZ: dz,
		X0: x0, Y0: y0, UX: ux, UY: uy,
		distLo: dMin - dxy/2,
		elevLo: zMin - dz/2,
	}
	nx := int(math.Ceil((dMax + dxy/2 - grid.distLo) / dxy))
	nz := int(math.Ceil((zMax + dz/2 - grid.elevLo) / dz))
	if nx < 1 {
		nx = 1
	}
	if nz < 1 {
		nz = 1
	}
	grid.Dist = make([]float64, nx)
	for i := range grid.Dist {
		grid.Dist[i] = grid.distLo + dxy*(float64(i)+0.5)
	}
	grid.Elev = make([]float64, nz)
	for i := range grid.Elev {
		grid.Elev[i] = grid.elevLo + dz*(float64(i)+0.5)
	}
	return grid, nil
}
