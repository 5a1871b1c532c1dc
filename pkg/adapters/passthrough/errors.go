package passthrough

import "errors"

// ErrNoOutput is returned when a session spec has no output channel.
var ErrNoOutput = errors.New("passthrough: session spec has no output channel")
