// Package requestid attaches a correlation id to work entering the notifier.
//
// HTTP requests get one through Middleware, which reuses a well-formed
// X-Request-ID header or generates a UUID. Kafka intake messages resolve the
// same header with Resolve. The id is kept in the context (WithContext,
// FromContext) and surfaces as the request_id attribute on every log record
// once LoggerExtractor is registered with the logger, including the records
// written by the detached notification fan-out.
package requestid
