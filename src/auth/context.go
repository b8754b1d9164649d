package auth

import (
	"context"
)

type contextKey string

const OperatorKey contextKey = "operator"

// WithOperator marks the request as authenticated for the given operator
// identity.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, OperatorKey, operator)
}

// GetOperatorFromContext returns the authenticated operator identity, if
// any.
func GetOperatorFromContext(ctx context.Context) (string, bool) {
	operator, ok := ctx.Value(OperatorKey).(string)
	return operator, ok
}
