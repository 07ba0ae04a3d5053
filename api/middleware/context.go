package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	tenantIDKey   contextKey = "tenant_id"
	sessionIDKey  contextKey = "session_id"
	customerIDKey contextKey = "customer_id"
	requestIDKey  contextKey = "request_id"
)

// TenantID returns the authenticated tenant, uuid.Nil when absent.
func TenantID(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(tenantIDKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// SessionID returns the authenticated storefront session id.
func SessionID(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// CustomerID returns the authenticated customer, nil for guest sessions.
func CustomerID(ctx context.Context) *uuid.UUID {
	if v, ok := ctx.Value(customerIDKey).(*uuid.UUID); ok {
		return v
	}
	return nil
}

// RequestIDFromContext returns the per-request id.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
