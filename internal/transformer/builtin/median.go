package builtin

import (
	"math"
	"sort"
)

// Median returns the median of the known values, skipping nil and NaN. The
// second result is false when no value is known.
func Median(vals []*float64) (float64, bool) {
	known := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v == nil || math.IsNaN(*v) {
			continue
		}
		known = append(known, *v)
	}
	if len(known) == 0 {
		return 0, false
	}
	sort.Float64s(known)
	mid := len(known) / 2
	if len(known)%2 == 1 {
		return known[mid], true
	}
	return (known[mid-1] + known[mid]) / 2, true
}
