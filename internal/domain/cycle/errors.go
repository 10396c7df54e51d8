package cycle

import "errors"

// Sentinel kinds for cycle key handling.
var (
	ErrBadKey = errors.New("malformed cycle key")
)
