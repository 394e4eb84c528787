package store

import "errors"

// Sentinel errors returned by store operations. Handlers map each to a
// distinct HTTP status; anything else escaping the store is a bug.
var (
	ErrValidation    = errors.New("invalid poll input")
	ErrPollNotFound  = errors.New("poll not found")
	ErrPollExpired   = errors.New("poll has expired")
	ErrInvalidOption = errors.New("option does not belong to poll")
	ErrAlreadyVoted  = errors.New("already voted")
)
