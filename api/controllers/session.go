package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/foodyzone-backend/api/middleware"
	"github.com/angelmondragon/foodyzone-backend/internal/sessions"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
)

// SessionProvider resolves the shopper session for a request.
type SessionProvider interface {
	Get(ctx context.Context, id string) (*sessions.Session, error)
}

func sessionFor(r *http.Request, provider SessionProvider) (*sessions.Session, error) {
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable")
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id missing")
	}
	return provider.Get(r.Context(), sessionID)
}
