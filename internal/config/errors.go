package config

import (
	"errors"
)

// Sentinel error kinds for this package. Timezone and schedule failures
// wrap ErrInvalidConfig as well as their own kind.
var (
	ErrInvalidConfig   = errors.New("invalid config")
	ErrLoadConfig      = errors.New("load config failed")
	ErrInvalidTimezone = errors.New("unknown timezone")
	ErrInvalidSchedule = errors.New("bad cron schedule")
)
