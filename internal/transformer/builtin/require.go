package builtin

import "errors"

// ErrMissingValue is returned when a field without a default is null.
var ErrMissingValue = errors.New("missing required value")
