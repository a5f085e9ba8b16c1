// Package retry provides bounded, context-aware retry with exponential backoff
// for calls to embedding and model services.
package retry
