package intake

import "errors"

var (
	ErrMalformedMessage = errors.New("intake: malformed notification message")
	ErrPublishFailed    = errors.New("intake: failed to publish notification")
)
