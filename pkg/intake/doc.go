// Package intake connects the notifier to the rest of the platform over Kafka.
// Producers (document processing, task runners) publish Message documents;
// Consumer turns each into a Dispatcher.Send call.
package intake
