package notifications

import "errors"

var (
	// ErrStoreUnavailable is returned when the event log cannot be read or written.
	ErrStoreUnavailable = errors.New("notifications: store unavailable")
	// ErrDeliveryFailure marks a single channel delivery that did not succeed.
	ErrDeliveryFailure = errors.New("notifications: delivery failed")
	// ErrUnknownNotificationType is returned when no email template exists for a type.
	ErrUnknownNotificationType = errors.New("notifications: unknown notification type")
	// ErrConnectionGone marks a live connection that failed to accept a message.
	ErrConnectionGone = errors.New("notifications: live connection gone")
	// ErrMissingCredential marks a device without the address, subscription or token its channel needs.
	ErrMissingCredential = errors.New("notifications: device has no credential for channel")
	ErrInvalidUserID     = errors.New("notifications: user id must be positive")
	ErrEmptyType         = errors.New("notifications: notification type is required")
	ErrInvalidPayload    = errors.New("notifications: payload is not serializable")
	ErrUnknownChannel    = errors.New("notifications: unknown channel kind")
	ErrDirectoryFailure  = errors.New("notifications: device directory lookup failed")
	// ErrDispatcherClosed is returned by Send once shutdown has begun.
	ErrDispatcherClosed = errors.New("notifications: dispatcher closed")
)
