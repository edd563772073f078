package notifications

import "context"

// LiveSender pushes events to the user's open live connections.
type LiveSender struct {
	senderBase
	registry *Registry
}

// NewLiveSender creates a sender that broadcasts through registry.
func NewLiveSender(registry *Registry, opts ...SenderOption) *LiveSender {
	return &LiveSender{
		senderBase: newSenderBase(ChannelLive, DefaultLiveTimeout, opts),
		registry:   registry,
	}
}

// Deliver broadcasts ev to the owner of the event. It succeeds when at least
// one connection accepted the message.
func (s *LiveSender) Deliver(ctx context.Context, d Device, ev Event) bool {
	return s.run(ctx, d, ev, func(ctx context.Context) error {
		if s.registry.Broadcast(ctx, ev.UserID, ev) == 0 {
			return errNoLiveConnections
		}
		return nil
	})
}
