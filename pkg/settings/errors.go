package settings

import "errors"

var (
	// ErrUnknownSetting is returned for a setting name that is not recognized.
	ErrUnknownSetting = errors.New("settings: unknown setting")

	// ErrInvalidValue is returned when a value cannot be applied to a setting.
	ErrInvalidValue = errors.New("settings: invalid value")
)
