package live

import "errors"

var (
	ErrInvalidUserID = errors.New("live: invalid user id")
	ErrWriteFailed   = errors.New("live: failed to write frame")
)
