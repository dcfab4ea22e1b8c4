// Package contextkey defines typed keys for request-scoped context values.
package contextkey

type contextKey string

const (
	// TraceID identifies a request chain across services.
	TraceID contextKey = "trace_id"

	// RequestID identifies a single inbound request.
	RequestID contextKey = "request_id"

	// TeamID carries the acting team when known.
	TeamID contextKey = "team_id"
)
