// Package telemetry configures OpenTelemetry tracing with an OTLP/HTTP exporter.
package telemetry
