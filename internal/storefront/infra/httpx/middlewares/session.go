package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
	"github.com/mifarmacia/storefront/internal/storefront/core/ports"
)

type sessionContextKey struct{}

// SessionFromContext returns the session resolved by RequireSession, or nil.
func SessionFromContext(ctx context.Context) *entity.Session {
	s, _ := ctx.Value(sessionContextKey{}).(*entity.Session)
	return s
}

// RequireSession resolves the bearer session id against the session store
// and rejects the request when it is missing or expired. On success the
// session object and its backend token are attached to the context.
func RequireSession(sessions ports.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := bearerToken(r)
			if sessionID == "" {
				unauthorized(w, "missing bearer session")
				return
			}

			sess, err := sessions.Load(r.Context(), sessionID)
			if err != nil {
				if errors.Is(err, ports.ErrNotFound) {
					unauthorized(w, "session expired or logged out")
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "session_store_error", "")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			ctx = ports.ContextWithToken(ctx, sess.Token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability gates a route on the session role's capability. It must
// run after RequireSession.
func RequireCapability(c entity.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SessionFromContext(r.Context()).Can(c) {
				writeJSONError(w, http.StatusForbidden, "forbidden", "role lacks the required capability")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeJSONError(w, http.StatusUnauthorized, "unauthorized", msg)
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
