// Package builtin contains the column-level building blocks used by the
// cleaning stage: optional resolvers, checked narrowing, rounding, the median
// statistic and the age bucketer.
package builtin

import (
	"fmt"
	"math"

	"titanic/internal/parser/ints"
)

// Or resolves an optional value to a required one, substituting def when p
// is nil.
func Or[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Known returns p, or nil when p holds NaN. Numeric cells pass through it
// before any fill so that NaN counts as missing everywhere.
func Known(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) {
		return nil
	}
	return p
}

// OrNonEmpty is Or for strings where the empty string also counts as missing.
func OrNonEmpty(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

// FillInt resolves a nullable numeric cell to def and then narrows the result
// to int. The fill happens first so that a missing value never reaches the
// narrowing step.
func FillInt(p *float64, def int) (int, error) {
	n, err := ints.FromFloat(Or(p, float64(def)))
	if err != nil {
		return 0, fmt.Errorf("coerce int: %w", err)
	}
	return n, nil
}

// RequireInt narrows a numeric cell that must be present.
func RequireInt(p *float64) (int, error) {
	if p == nil {
		return 0, ErrMissingValue
	}
	n, err := ints.FromFloat(*p)
	if err != nil {
		return 0, fmt.Errorf("coerce int: %w", err)
	}
	return n, nil
}
