package webpush

import "errors"

var (
	ErrInvalidConfig       = errors.New("webpush: invalid config")
	ErrInvalidSubscription = errors.New("webpush: invalid subscription")
	ErrSubscriptionGone    = errors.New("webpush: subscription expired or unsubscribed")
	ErrPushRejected        = errors.New("webpush: push service rejected the message")
)
