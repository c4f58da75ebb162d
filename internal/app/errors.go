package service

import (
	"errors"

	"github.com/okian/datesync/internal/adapters/mq/queue"
	"github.com/okian/datesync/internal/adapters/repository"
	"github.com/okian/datesync/internal/domain/freewindow"
)

// Sentinel kinds surfaced to callers. Adapter and builder kinds are
// re-exported so callers can match them without extra imports.
var (
	ErrNotStarted = errors.New("service not started")

	ErrBackpressure  = queue.ErrFull
	ErrQueueClosed   = queue.ErrClosed
	ErrNotFound      = repository.ErrNotFound
	ErrNoPartner     = repository.ErrNoPartner
	ErrSelfLink      = repository.ErrSelfLink
	ErrInvalidUser   = repository.ErrInvalidUserID
	ErrInvalidSource = repository.ErrInvalidSource
	ErrRangeTooLong  = freewindow.ErrRangeTooLong
)
