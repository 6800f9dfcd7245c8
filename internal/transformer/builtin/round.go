package builtin

import "math"

// Round rounds v to the given number of decimal places using round-half-to-
// even on the scaled value, matching numpy's rounding of float columns.
// NaN and infinities are returned unchanged.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow10(places)
	r := math.RoundToEven(v*scale) / scale
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return v
	}
	return r
}

// RoundPtr rounds *p in a copy; nil stays nil.
func RoundPtr(p *float64, places int) *float64 {
	if p == nil {
		return nil
	}
	r := Round(*p, places)
	return &r
}
