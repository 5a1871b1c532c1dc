package runner

import "errors"

var (
	// ErrInvalidChange is returned for malformed scheduled changes.
	ErrInvalidChange = errors.New("runner: invalid change")
)
