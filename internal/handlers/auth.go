package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nikhil/modportal/internal/identity"
	"github.com/nikhil/modportal/internal/logger"
	"github.com/nikhil/modportal/internal/middleware"
	services "github.com/nikhil/modportal/internal/service/auth"
)

const (
	refreshTokenCookie = "mod-refresh-token"
	// codeVerifierCookie is written by the login page when it starts a
	// PKCE sign-in.
	codeVerifierCookie = "mod-code-verifier"

	defaultNext = "/dashboard"
)

type AuthHandler struct {
	Service      *services.AuthService
	CookieSecure bool
	Log          *logger.Logger
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(service *services.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		Service:      service,
		CookieSecure: cookieSecure,
		Log:          logger.NewLogger("auth-handler"),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles the staff sign-in request
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds loginRequest
	if !decodeJSON(w, r, &creds) {
		return
	}

	session, err := h.Service.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "sign in")
		return
	}

	h.setSessionCookies(w, session)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user":       session.User,
		"expires_at": session.ExpiresAt,
	})
}

// SignOut revokes the session, clears cookies and sends the browser to the
// login page. It redirects even if the provider could not be reached.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(middleware.AccessTokenCookie); err == nil {
		token = c.Value
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		token = strings.TrimPrefix(auth, "Bearer ")
	}

	if err := h.Service.SignOut(r.Context(), token); err != nil {
		h.Log.WithContext(r.Context()).Warn("Continuing sign out after provider error", "error", err)
	}

	h.clearCookie(w, middleware.AccessTokenCookie)
	h.clearCookie(w, refreshTokenCookie)
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// Callback finishes a sign-in that the identity provider redirected back
// with an auth code. Without a code there is nothing to exchange and the
// browser goes straight on to next.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	next := safeNext(r.URL.Query().Get("next"))

	if code == "" {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	verifier := ""
	if c, err := r.Cookie(codeVerifierCookie); err == nil {
		verifier = c.Value
	}

	session, err := h.Service.Callback(r.Context(), code, verifier)
	if err != nil {
		http.Redirect(w, r, middleware.LoginPath+"?error=callback", http.StatusSeeOther)
		return
	}

	h.setSessionCookies(w, session)
	h.clearCookie(w, codeVerifierCookie)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Dashboard returns the signed-in staff member as the identity provider
// knows them. A token the provider has revoked ends the session.
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	user, err := h.Service.CurrentUser(r.Context(), session.AccessToken)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		middleware.RejectSession(w, r, middleware.BearerRequest(r), "Session expired")
		return
	}
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "load user")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    user.ID,
		"email":      user.Email,
		"expires_at": session.ExpiresAt,
	})
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, s *identity.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    s.AccessToken,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	if s.RefreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     refreshTokenCookie,
			Value:    s.RefreshToken,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultNext
	}
	return next
}
