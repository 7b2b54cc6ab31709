package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can read or write the
// authenticated user ID in a request context.
type contextKey string

const userIDKey contextKey = "userID"

// SessionCookie is the name of the HttpOnly cookie carrying the session JWT.
const SessionCookie = "token"

// RequireAuth enforces authentication. It accepts the session JWT either
// from the session cookie or from an "Authorization: Bearer" header (for
// non-browser clients), validates it, and stores the userID in the request
// context. Missing or invalid tokens end the request with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the user identity if a valid token is present but
// never blocks the request. Handlers on public routes use
// UserIDFromContext to tell signed-in readers from anonymous ones.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil && userID != "" {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the authenticated user's ID, or ("", false) for
// anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	// Cookie first; fall back to the Authorization header.
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return tokens.Validate(cookie.Value)
	}

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return tokens.Validate(strings.TrimPrefix(header, "Bearer "))
	}

	return "", http.ErrNoCookie
}
