package notifications

import (
	"fmt"
	"strings"
)

// ChannelKind is the delivery mechanism of a registered device.
type ChannelKind string

const (
	ChannelLive    ChannelKind = "live"
	ChannelEmail   ChannelKind = "email"
	ChannelWebPush ChannelKind = "web_push"
	ChannelFCM     ChannelKind = "fcm"
)

// ChannelKinds lists every supported channel.
var ChannelKinds = []ChannelKind{ChannelLive, ChannelEmail, ChannelWebPush, ChannelFCM}

// ParseChannelKind maps the stored channel name to a ChannelKind.
// Case and surrounding whitespace are ignored; "webpush" and "web-push" are accepted as aliases.
func ParseChannelKind(s string) (ChannelKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "live", "websocket":
		return ChannelLive, nil
	case "email":
		return ChannelEmail, nil
	case "web_push", "webpush", "web-push":
		return ChannelWebPush, nil
	case "fcm":
		return ChannelFCM, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

// String returns the canonical channel name.
func (c ChannelKind) String() string { return string(c) }

// Device is a registered delivery endpoint of a user. Only the credential
// matching Channel is meaningful.
type Device struct {
	ID               int64
	UserID           int64
	Channel          ChannelKind
	IsActive         bool
	Email            string // owner's address, joined from the users table
	PushSubscription string // browser PushSubscription as JSON
	FCMToken         string
}
