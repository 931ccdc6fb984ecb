// Package tracer configures OpenTelemetry tracing for tokguard.
//
// With an OTLP endpoint configured, spans are batched and exported over
// OTLP/HTTP. Without one, a no-op provider is installed so call sites need
// no conditionals.
package tracer
