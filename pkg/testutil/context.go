package testutil

import (
	"net/http"

	"medix/pkg/domain"
	"medix/pkg/requestcontext"
)

// TestAdmin is the principal attached by WithAdmin.
var TestAdmin = domain.Principal{
	ID:          "admin-test-001",
	Email:       "ops@aumedix.com",
	Name:        "Ops Admin",
	Role:        "super_admin",
	AccessToken: "backend-token",
}

// WithAdmin attaches TestAdmin to the request context, standing in for the
// session middleware.
func WithAdmin(req *http.Request) *http.Request {
	return WithPrincipal(req, TestAdmin)
}

// WithPrincipal attaches p to the request context.
func WithPrincipal(req *http.Request, p domain.Principal) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), p)
	ctx = requestcontext.WithSessionID(ctx, "session-"+p.ID)
	return req.WithContext(ctx)
}
