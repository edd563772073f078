// Package webpush is the Web Push transport for the notification service.
//
// It wraps github.com/SherClockHolmes/webpush-go: payloads are encrypted for
// the browser subscription (RFC 8291) and signed with the server's VAPID keys.
// Expired subscriptions surface as ErrSubscriptionGone; the caller decides
// whether to deactivate the device.
package webpush
