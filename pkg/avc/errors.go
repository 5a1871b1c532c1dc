package avc

import "errors"

var (
	// ErrNoParameterSets is returned when SPS or PPS are missing.
	ErrNoParameterSets = errors.New("avc: no parameter sets")

	// ErrInvalidSPS is returned when an SPS cannot be parsed.
	ErrInvalidSPS = errors.New("avc: invalid SPS")
)
