// Package ints provides checked conversions from parsed numeric cells to Go
// integers. Every conversion fails loudly instead of truncating.
package ints

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNotIntegral is returned for NaN, infinities, and values with a
	// fractional part.
	ErrNotIntegral = errors.New("not an integral value")
	// ErrOutOfRange is returned when the value does not fit the target type.
	ErrOutOfRange = errors.New("value out of range")
)

// FromFloat narrows f to int. Values such as 3.0 convert; 2.5, NaN and ±Inf
// do not.
func FromFloat(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%v: %w", f, ErrNotIntegral)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v: %w", f, ErrOutOfRange)
	}
	n := int64(f)
	if int64(int(n)) != n {
		return 0, fmt.Errorf("%v: %w", f, ErrOutOfRange)
	}
	return int(n), nil
}

// FromInt64 narrows n to int.
func FromInt64(n int64) (int, error) {
	if int64(int(n)) != n {
		return 0, fmt.Errorf("%d: %w", n, ErrOutOfRange)
	}
	return int(n), nil
}

// ParseID parses an identifier cell. Plain integers are accepted, as are
// float renderings of integers ("12.0") that spreadsheet exports produce.
func ParseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	n, err := FromFloat(f)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}
