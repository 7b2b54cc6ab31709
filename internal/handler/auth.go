package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/gregsypek/devflow/internal/auth"
	"github.com/gregsypek/devflow/internal/service"
)

// AuthHandler manages sign-up, sign-in, OAuth login, and the session
// cookie lifecycle. The providers map is keyed by URL segment ("github",
// "google"); an unknown segment is a 404.
type AuthHandler struct {
	auth      *service.AuthService
	providers map[string]auth.Provider
	sessions  *auth.TokenService
	secure    bool // Secure flag on cookies; true in production
	logger    *slog.Logger
}

func NewAuthHandler(
	authSvc *service.AuthService,
	providers map[string]auth.Provider,
	sessions *auth.TokenService,
	secure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:      authSvc,
		providers: providers,
		sessions:  sessions,
		secure:    secure,
		logger:    logger,
	}
}

// authResponse is the body returned by sign-up and sign-in.
type authResponse struct {
	User any `json:"user"`
	// SessionPending is true when the account exists but no session could
	// be issued; the client should send the user to sign-in.
	SessionPending bool `json:"sessionPending,omitempty"`
}

// HandleSignUp creates a credentials account.
//
// POST /auth/signup
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var in service.SignUpInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.SignUp(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	if !result.SessionPending {
		h.setSessionCookie(w, result.Token)
	}
	writeJSON(w, http.StatusCreated, authResponse{User: result.User, SessionPending: result.SessionPending})
}

// HandleSignIn verifies credentials and issues a session.
//
// POST /auth/signin
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var in service.SignInInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.SignIn(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, authResponse{User: result.User})
}

// HandleLogout clears the session cookie. The JWT itself stays valid
// until expiry; without the cookie the browser can no longer send it.
//
// POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleOAuthLogin redirects the browser to the provider's authorization
// page. A random state lands in a short-lived cookie; the callback
// verifies it to tie the response to this browser.
//
// GET /auth/{provider}/login
func (h *AuthHandler) HandleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleOAuthCallback completes the OAuth flow: state check, code
// exchange, then the account link transaction, then the session cookie.
//
// GET /auth/{provider}/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch", slog.String("provider", provider.Name()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid OAuth state"})
		return
	}
	// The state is single-use. The clearing cookie carries the same
	// attributes as the one set at login so the browser matches them up.
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	if denied := r.URL.Query().Get("error"); denied != "" {
		h.logger.Info("oauth callback: authorization denied",
			slog.String("provider", provider.Name()),
			slog.String("error", denied),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "missing OAuth code"})
		return
	}

	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "oauth_error", Message: "authentication with the provider failed"})
		return
	}

	result, err := h.auth.SignInWithOAuth(r.Context(), profile)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.SessionPending {
		http.Redirect(w, r, "/signin?reason=session", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, result.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleMe returns the authenticated user's own record.
//
// GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
