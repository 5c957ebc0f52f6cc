package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nikhil/modportal/internal/logger"
)

type ContextKey string

const SessionContextKey ContextKey = "session"

// AccessTokenCookie carries the identity provider's access token for
// browser requests.
const AccessTokenCookie = "mod-access-token"

// LoginPath is where unauthenticated browser requests are sent.
const LoginPath = "/login"

// Session is the authenticated staff member behind the current request.
type Session struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// Claims is the part of the identity provider's access token the portal
// relies on.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, s)
}

// SessionFromContext returns the session set by Authenticator.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(SessionContextKey).(*Session)
	return s, ok && s != nil
}

// ActorID returns the id of the signed-in user, or "" outside a session.
func ActorID(ctx context.Context) string {
	if s, ok := SessionFromContext(ctx); ok {
		return s.UserID
	}
	return ""
}

type Authenticator struct {
	secret []byte
	log    *logger.Logger
}

func NewAuthenticator(secret string, log *logger.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), log: log}
}

// Parse verifies an access token and returns the session it describes.
func (a *Authenticator) Parse(tokenStr string) (*Session, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return &Session{
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: tokenStr,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Middleware rejects requests without a valid session. API clients that sent
// a bearer token get a 401; browsers are redirected to the login page.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, bearer := accessToken(r)
		if tokenStr == "" {
			a.reject(w, r, bearer, "Missing auth token")
			return
		}

		session, err := a.Parse(tokenStr)
		if err != nil {
			a.log.WithContext(r.Context()).Debug("Rejected access token", "path", r.URL.Path, "error", err)
			a.reject(w, r, bearer, "Invalid token")
			return
		}

		ctx := ContextWithSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, bearer bool, msg string) {
	RejectSession(w, r, bearer, msg)
}

// RejectSession answers a request whose session is missing or no longer
// valid: 401 JSON for API clients, a redirect to the login page for browsers.
func RejectSession(w http.ResponseWriter, r *http.Request, bearer bool, msg string) {
	if bearer || !acceptsHTML(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": msg})
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// BearerRequest reports whether r carries its token in the Authorization
// header.
func BearerRequest(r *http.Request) bool {
	return r.Header.Get("Authorization") != ""
}

func accessToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), true
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value, false
	}
	return "", false
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func ResponseWrapperMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
