package builtin

import (
	"math"

	"titanic/internal/schema"
)

// AgeRange buckets an age. Buckets are closed below and open above; nil,
// NaN and negative ages are Unknown.
func AgeRange(age *float64) schema.AgeRange {
	if age == nil || math.IsNaN(*age) || *age < 0 {
		return schema.AgeUnknown
	}
	switch a := *age; {
	case a < 18:
		return schema.Age0To17
	case a < 30:
		return schema.Age18To29
	case a < 45:
		return schema.Age30To44
	case a < 60:
		return schema.Age45To59
	default:
		return schema.Age60Plus
	}
}
