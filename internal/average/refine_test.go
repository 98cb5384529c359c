package average

import (
	"math"
	"testing"

	"github.com/esatel/adcpy/internal/adcp"
)

// columnField builds a field with one horizontal bin and nz vertical bins,
// with the U component of column 0 set to the given profile.
func columnField(profile []float64) *Field {
	grid := &BinGrid{
		Dist: []float64{0},
		Elev: make([]float64, len(profile)),
		DXY:  1, DZ: 1,
		UX: 1,
	}
	for i := range grid.Elev {
		grid.Elev[i] = float64(i)
	}
	f := NewField(grid)
	for iz, v := range profile {
		f.SetVelocity(0, iz, adcp.U, adcp.Of(v))
		f.Count[f.idx(0, iz, adcp.U)] = 1
	}
	return f
}

func TestSDDropFlagsOutlier(t *testing.T) {
	// A flat profile with one extreme spike far beyond 3 sigma. The
	// profile is long enough that the spike cannot hide by inflating the
	// profile standard deviation.
	profile := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 50.0, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	f := columnField(profile)

	SDDrop(f, 3.0, AxisElevation, false)

	if !f.VelocityAt(0, 7, adcp.U).IsMissing() {
		t.Error("outlier bin should be flagged missing")
	}
	for iz := range profile {
		if iz == 7 {
			continue
		}
		if f.VelocityAt(0, iz, adcp.U).IsMissing() {
			t.Errorf("bin %d was dropped but is not an outlier", iz)
		}
	}
}

func TestSDDropInterpolatesHoles(t *testing.T) {
	profile := []float64{0.1, 0.2, 0.3, 30.0, 0.5, 0.6, 0.7}
	f := columnField(profile)

	SDDrop(f, 2.0, AxisElevation, true)

	got, ok := f.VelocityAt(0, 3, adcp.U).Float()
	if !ok {
		t.Fatal("hole should have been interpolated from vertical neighbours")
	}
	// Linear between 0.3 and 0.5.
	if math.Abs(got-0.4) > 1e-9 {
		t.Errorf("interpolated value = %v, want 0.4", got)
	}
}

func TestSDDropLeavesPreexistingHoles(t *testing.T) {
	profile := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	f := columnField(profile)
	f.SetVelocity(0, 2, adcp.U, adcp.Missing())

	SDDrop(f, 3.0, AxisElevation, true)

	if !f.VelocityAt(0, 2, adcp.U).IsMissing() {
		t.Error("holes that predate sd dropping must not be interpolated")
	}
}

func TestSDDropDisabled(t *testing.T) {
	profile := []float64{0.5, 0.5, 50.0, 0.5}
	f := columnField(profile)
	SDDrop(f, 0, AxisElevation, false)
	if f.VelocityAt(0, 2, adcp.U).IsMissing() {
		t.Error("sd of 0 must disable dropping")
	}
}

func TestSDDropEnsembleAxis(t *testing.T) {
	// One vertical bin, many horizontal bins: the ensemble axis runs
	// across columns.
	grid := &BinGrid{Dist: make([]float64, 13), Elev: []float64{0}, DXY: 1, DZ: 1, UX: 1}
	f := NewField(grid)
	row := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, -40.0, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	for ix, v := range row {
		f.SetVelocity(ix, 0, adcp.U, adcp.Of(v))
	}

	SDDrop(f, 3.0, AxisEnsemble, false)

	if !f.VelocityAt(6, 0, adcp.U).IsMissing() {
		t.Error("ensemble-axis outlier should be flagged missing")
	}
}

func TestInterpolateHolesAtEdges(t *testing.T) {
	line := []adcp.Value{adcp.Missing(), adcp.Of(1), adcp.Missing(), adcp.Of(3), adcp.Missing()}
	interpolateHoles(line, []int{0, 2, 4})

	if !line[0].IsMissing() || !line[4].IsMissing() {
		t.Error("edge holes with one-sided neighbours must stay missing")
	}
	if v, ok := line[2].Float(); !ok || math.Abs(v-2) > 1e-12 {
		t.Errorf("interior hole = %v, want 2", line[2])
	}
}

func TestKernelSmoothSmallKernelIsNoOp(t *testing.T) {
	f := columnField([]float64{0.1, 0.9, 0.1})
	before := append([]adcp.Value(nil), f.Velocity...)

	for _, k := range []int{0, 1} {
		if err := KernelSmooth(f, k); err != nil {
			t.Fatalf("KernelSmooth(%d): %v", k, err)
		}
		for i := range before {
			if before[i] != f.Velocity[i] {
				t.Fatalf("kernel %d modified cell %d", k, i)
			}
		}
	}
}

func TestKernelSmoothRejectsEvenKernel(t *testing.T) {
	f := columnField([]float64{0.1, 0.9})
	if err := KernelSmooth(f, 4); err == nil {
		t.Fatal("even kernel size should be rejected")
	}
}

func TestKernelSmoothAverages(t *testing.T) {
	f := columnField([]float64{0.0, 0.9, 0.0})
	if err := KernelSmooth(f, 3); err != nil {
		t.Fatalf("KernelSmooth: %v", err)
	}
	// Middle bin: mean of the full window.
	got, ok := f.VelocityAt(0, 1, adcp.U).Float()
	if !ok || math.Abs(got-0.3) > 1e-12 {
		t.Errorf("smoothed centre = %v, want 0.3", got)
	}
	// Edge bin: window clipped to two members.
	got, ok = f.VelocityAt(0, 0, adcp.U).Float()
	if !ok || math.Abs(got-0.45) > 1e-12 {
		t.Errorf("smoothed edge = %v, want 0.45", got)
	}
}

func TestKernelSmoothAllMissingWindowStaysMissing(t *testing.T) {
	grid := &BinGrid{Dist: make([]float64, 7), Elev: []float64{0}, DXY: 1, DZ: 1, UX: 1}
	f := NewField(grid)
	// Valid data only at the far left; the far right window is all missing.
	f.SetVelocity(0, 0, adcp.U, adcp.Of(0.5))

	if err := KernelSmooth(f, 3); err != nil {
		t.Fatalf("KernelSmooth: %v", err)
	}
	if !f.VelocityAt(6, 0, adcp.U).IsMissing() {
		t.Error("all-missing kernel window must stay missing")
	}
	if f.VelocityAt(0, 0, adcp.U).IsMissing() {
		t.Error("valid cell lost by smoothing")
	}
}
