package freewindow

import "errors"

// Sentinel kinds for builder errors.
var (
	ErrRangeTooLong = errors.New("date range exceeds builder limit")
)
