package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/scrolla/backend/internal/auth"
	"github.com/scrolla/backend/internal/logging"
)

// requireUser resolves the bearer token on the request to a user identifier.
// It writes the 401 response itself; callers must return when ok is false.
func requireUser(w http.ResponseWriter, r *http.Request, sessions SessionManager) (ctx context.Context, userID string, ok bool) {
	ctx = r.Context()
	logger := logging.FromContext(ctx)

	if sessions == nil {
		logger.Error("session manager unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session service unavailable"})
		return ctx, "", false
	}

	token := bearerToken(r)
	if token == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return ctx, "", false
	}

	userID, err := sessions.Authenticate(ctx, token)
	if err != nil {
		switch err {
		case auth.ErrAccessTokenExpired:
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "access token expired"})
		case auth.ErrSessionNotFound:
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid access token"})
		default:
			logger.Error("authenticate access token", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to authenticate request"})
		}
		return ctx, "", false
	}

	ctx = logging.WithUserID(ctx, userID)
	return ctx, userID, true
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
