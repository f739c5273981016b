// Package testutil holds small helpers shared across handler tests.
package testutil

import (
	"context"
	"net/http"

	"certmint/internal/platform/middleware"
)

// WithAuth stamps the request context the way RequireAuth would for an
// authenticated request.
func WithAuth(req *http.Request, userID, role string) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
	return req.WithContext(ctx)
}
