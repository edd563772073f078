// Package live serves the websocket endpoint through which clients receive
// notifications in real time.
//
// A connected client first gets a connection_established frame, then the
// most recent stored events marked "replayed", then every new event as it is
// dispatched. Clients may send {"type":"ack","id":"<event id>"} frames.
package live
