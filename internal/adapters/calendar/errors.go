package calendar

import "errors"

// Sentinel kinds for calendar source errors.
var (
	ErrFetch        = errors.New("calendar fetch failed")
	ErrParse        = errors.New("calendar parse failed")
	ErrEmptySource  = errors.New("calendar source url is empty")
	ErrInvalidRange = errors.New("expand range end before start")
)
