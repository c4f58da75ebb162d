package api

import (
	"errors"
	"net/http"

	service "github.com/okian/datesync/internal/app"
	"github.com/okian/datesync/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrBadQuery   = errors.New("invalid query parameter")
)

// classify maps an error kind to an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidRange):
		return http.StatusBadRequest, "invalid_range"
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, service.ErrRangeTooLong):
		return http.StatusBadRequest, "range_too_long"
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrBadQuery):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrInvalidUser), errors.Is(err, service.ErrInvalidSource),
		errors.Is(err, service.ErrSelfLink):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNoPartner):
		return http.StatusNotFound, "no_partner"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrQueueClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
