package adcp

import "math"

// Value is an optional velocity sample. The zero value is missing.
// Missing samples are excluded from every statistic and survive every
// transform: rotating, interpolating or smoothing a missing value yields
// missing, never zero.
type Value struct {
	v  float64
	ok bool
}

// Of wraps a measured sample. NaN and Inf inputs convert to missing, so
// sentinel conventions from upstream file formats stop at this boundary.
func Of(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// Missing returns the missing sample.
func Missing() Value { return Value{} }

// Float returns the sample and whether it is present.
func (x Value) Float() (float64, bool) { return x.v, x.ok }

// IsMissing reports whether the sample is absent.
func (x Value) IsMissing() bool { return !x.ok }

// Or returns the sample, or def when missing.
func (x Value) Or(def float64) float64 {
	if !x.ok {
		return def
	}
	return x.v
}
