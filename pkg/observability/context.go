package observability

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	correlationIDCtxKey contextKey = "correlation_id"
	requestIDCtxKey     contextKey = "request_id"
	principalCtxKey     contextKey = "principal"
	operationCtxKey     contextKey = "operation"
)

// Attribute keys shared by logs and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	PrincipalKey     = "principal"
	OperationKey     = "operation"
	LedgerKey        = "ledger"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
)

// WithCorrelationID adds a correlation ID to the context. An empty id is
// replaced with a new UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, correlationIDCtxKey, id)
}

// CorrelationIDFromContext extracts the correlation ID from context.
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, correlationIDCtxKey)
}

// CorrelationUUID returns the context's correlation ID as a UUID, or
// uuid.Nil when it is absent or not a UUID.
func CorrelationUUID(ctx context.Context) uuid.UUID {
	id, err := uuid.Parse(CorrelationIDFromContext(ctx))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// WithRequestID adds a request ID to the context. An empty id is replaced
// with a new UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, requestIDCtxKey, id)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDCtxKey)
}

// WithPrincipal records the account an invocation acts for.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalCtxKey, principal)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) string {
	return stringValue(ctx, principalCtxKey)
}

// WithOperation adds an operation name to the context.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationCtxKey, operation)
}

// OperationFromContext extracts the operation name from context.
func OperationFromContext(ctx context.Context) string {
	return stringValue(ctx, operationCtxKey)
}

// NewRequestContext creates a context with a new request ID and a
// correlation ID, reusing parentCorrelationID when given.
func NewRequestContext(ctx context.Context, parentCorrelationID string) context.Context {
	return WithCorrelationID(WithRequestID(ctx, ""), parentCorrelationID)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
