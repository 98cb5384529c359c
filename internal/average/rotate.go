package average

import (
	"fmt"
	"math"

	"github.com/esatel/adcpy/internal/adcp"
)

// RotationMode selects the post-average coordinate rotation. Exactly one
// mode is active per run; unrecognised names are rejected when the
// configuration is validated, not when a group is processed.
type RotationMode int

const (
	// RotationNone leaves velocities in the survey frame.
	RotationNone RotationMode = iota
	// RotationRozovski rotates each vertical column by its own
	// depth-averaged flow direction, per Rozovski's method.
	RotationRozovski
	// RotationPrincipalFlow rotates the whole field by the single angle of
	// its depth-averaged flow direction.
	RotationPrincipalFlow
	// RotationNoTransverseFlow rotates by the single angle that zeroes the
	// net cross-stream flux over the whole field.
	RotationNoTransverseFlow
	// RotationNormal rotates so U is normal to the projected transect line.
	RotationNormal
)

var rotationNames = map[RotationMode]string{
	RotationNone:             "none",
	RotationRozovski:         "Rozovski",
	RotationPrincipalFlow:    "principal flow",
	RotationNoTransverseFlow: "no transverse flow",
	RotationNormal:           "normal",
}

func (m RotationMode) valid() bool {
	_, ok := rotationNames[m]
	return ok
}

// String returns the mode name as used in configuration files.
func (m RotationMode) String() string {
	if s, ok := rotationNames[m]; ok {
		return s
	}
	return fmt.Sprintf("RotationMode(%d)", int(m))
}

// ParseRotationMode maps a configuration string to its mode. The empty
// string means no rotation.
func ParseRotationMode(s string) (RotationMode, error) {
	switch s {
	case "", "none":
		return RotationNone, nil
	case "Rozovski":
		return RotationRozovski, nil
	case "principal flow":
		return RotationPrincipalFlow, nil
	case "no transverse flow":
		return RotationNoTransverseFlow, nil
	case "normal":
		return RotationNormal, nil
	}
	return RotationNone, fmt.Errorf("unknown rotation mode %q", s)
}

// Rotate recomputes the field's U and V components in the rotated frame
// selected by mode, in place. After rotation U is the streamwise and V the
// cross-stream component. W is untouched. A cell whose U or V is missing
// stays missing in both rotated components: rotation never turns a missing
// sample into a number. Counts and standard deviations keep their original
// per-component meaning.
func Rotate(f *Field, mode RotationMode) error {
	switch mode {
	case RotationNone:
		return nil
	case RotationRozovski:
		for ix := 0; ix < f.Grid.NX(); ix++ {
			ub, okU := f.DepthAveraged(ix, adcp.U).Float()
			vb, okV := f.DepthAveraged(ix, adcp.V).Float()
			if !okU || !okV {
				continue
			}
			rotateColumn(f, ix, math.Atan2(vb, ub))
		}
		return nil
	case RotationPrincipalFlow:
		theta, ok := meanFlowAngle(f)
		if !ok {
			return nil
		}
		rotateAll(f, theta)
		return nil
	case RotationNoTransverseFlow:
		theta, ok := fluxAngle(f)
		if !ok {
			return nil
		}
		rotateAll(f, theta)
		return nil
	case RotationNormal:
		// Streamwise direction normal to the projected transect line.
		theta := math.Atan2(f.Grid.UY, f.Grid.UX) + math.Pi/2
		rotateAll(f, theta)
		return nil
	}
	return fmt.Errorf("unknown rotation mode %d", int(mode))
}

// meanFlowAngle is the direction of the unweighted mean of all valid
// depth-averaged (U, V) pairs.
func meanFlowAngle(f *Field) (float64, bool) {
	var su, sv float64
	var n int
	for ix := 0; ix < f.Grid.NX(); ix++ {
		u, okU := f.DepthAveraged(ix, adcp.U).Float()
		v, okV := f.DepthAveraged(ix, adcp.V).Float()
		if !okU || !okV {
			continue
		}
		su += u
		sv += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return math.Atan2(sv, su), true
}

// fluxAngle is the direction of the cell-summed (U, V) flux. Rotating by it
// forces the summed cross-stream component to zero.
func fluxAngle(f *Field) (float64, bool) {
	var su, sv float64
	var n int
	for ix := 0; ix < f.Grid.NX(); ix++ {
		for iz := 0; iz < f.Grid.NZ(); iz++ {
			u, okU := f.VelocityAt(ix, iz, adcp.U).Float()
			v, okV := f.VelocityAt(ix, iz, adcp.V).Float()
			if !okU || !okV {
				continue
			}
			su += u
			sv += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return math.Atan2(sv, su), true
}

func rotateAll(f *Field, theta float64) {
	for ix := 0; ix < f.Grid.NX(); ix++ {
		rotateColumn(f, ix, theta)
	}
}

// rotateColumn rotates every (U, V) pair in column ix by theta so that the
// direction theta becomes the new U axis.
func rotateColumn(f *Field, ix int, theta float64) {
	sin, cos := math.Sincos(theta)
	for iz := 0; iz < f.Grid.NZ(); iz++ {
		u, okU := f.VelocityAt(ix, iz, adcp.U).Float()
		v, okV := f.VelocityAt(ix, iz, adcp.V).Float()
		if !okU || !okV {
			// A half-missing pair cannot be rotated; both components
			// become missing rather than inventing a zero.
			if okU != okV {
				f.SetVelocity(ix, iz, adcp.U, adcp.Missing())
				f.SetVelocity(ix, iz, adcp.V, adcp.Missing())
			}
			continue
		}
		f.SetVelocity(ix, iz, adcp.U, adcp.Of(u*cos+v*sin))
		f.SetVelocity(ix, iz, adcp.V, adcp.Of(-u*sin+v*cos))
	}
}
