// Package notifications is the delivery core of the notifier service.
//
// A notification is first appended to the owner's bounded history (Store) and
// only then fanned out. Persistence is the single synchronous step: once
// Dispatcher.Send returns an event id the event is readable through
// ListPending, whatever happens to delivery afterwards.
//
// Fan-out runs detached from the caller's context and has its own timeout:
//
//   - one broadcast to the user's open live connections (Registry, LiveSender)
//   - one delivery per active registered device (DeviceDirectory), routed by
//     ChannelKind to the EmailSender, WebPushSender or FCMSender
//
// Every channel delivery is supervised on its own. A panic, an error or a
// timeout in one of them is logged and counted but never affects the others,
// and nothing is retried.
//
// # Usage
//
//	store := notifications.NewRedisStore(redisClient,
//	    notifications.WithMaxEvents(100),
//	    notifications.WithRetention(30*24*time.Hour),
//	)
//	registry := notifications.NewRegistry()
//	dispatcher := notifications.NewDispatcher(store, notifications.NewSQLDirectory(db),
//	    notifications.WithLiveSender(notifications.NewLiveSender(registry)),
//	    notifications.WithEmailSender(notifications.NewEmailSender(mailer, nil)),
//	    notifications.WithWebPushSender(notifications.NewWebPushSender(webpushClient)),
//	    notifications.WithFCMSender(notifications.NewFCMSender(fcmClient)),
//	)
//
//	id, err := dispatcher.Send(ctx, userID, "document_processed", notifications.Payload{
//	    "title":       "Contract analyzed",
//	    "document_id": 42,
//	})
//
// The Registry is process local. Connections that fail are logged and kept;
// the transport that owns a connection is responsible for disconnecting it.
package notifications
