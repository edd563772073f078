package fcm

import "errors"

var (
	ErrInvalidConfig     = errors.New("fcm: invalid config")
	ErrInitFailed        = errors.New("fcm: failed to initialize firebase messaging")
	ErrEmptyToken        = errors.New("fcm: empty registration token")
	ErrTokenUnregistered = errors.New("fcm: registration token is no longer valid")
	ErrSendFailed        = errors.New("fcm: send failed")
)
