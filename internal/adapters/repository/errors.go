package repository

import "errors"

// Sentinel kinds for profile store errors.
var (
	ErrNotFound      = errors.New("user not found")
	ErrNoPartner     = errors.New("user has no linked partner")
	ErrSelfLink      = errors.New("user cannot be linked to themselves")
	ErrInvalidUserID = errors.New("invalid user id")
	ErrInvalidSource = errors.New("invalid calendar source")
)
