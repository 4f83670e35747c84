package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/blabladev/devhub/internal/token"
)

// CookieName is the session cookie's name.
const CookieName = "session"

// CookieMaxAge is the session lifetime granted on login and on every
// successful validation.
const CookieMaxAge = 15 * 24 * time.Hour

// Session is the authenticated identity carried through a request.
// It is decoded from the cookie on every request — nothing here is ever
// persisted server-side.
type Session struct {
	Token  string // GitHub access token of the logged-in user
	UserID int64  // GitHub numeric user ID
	Role   string // e.g. "dev"
}

// payload is the JSON structure inside the encrypted cookie. The one-letter
// keys match the cookies already issued in production, so they cannot be
// renamed.
type payload struct {
	G string `json:"g"` // provider access token
	I int64  `json:"i"` // user id
	T string `json:"t"` // role
}

// Encode encrypts a session into a cookie value.
func Encode(codec *token.Codec, s Session) (string, error) {
	raw, err := json.Marshal(payload{G: s.Token, I: s.UserID, T: s.Role})
	if err != nil {
		return "", fmt.Errorf("auth: encoding session payload: %w", err)
	}
	return codec.Encrypt(string(raw))
}

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the session value.
type contextKey struct{}

var sessionKey contextKey

// WithSession returns a context carrying the session. Gate.Require calls
// this on every authenticated request; tests use it to exercise handlers
// without going through the middleware.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext retrieves the session placed there by Gate.Require.
// The second return is false on anonymous requests.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// Gate is the sole authorization check in front of every protected route.
// It is a pure function of the cookie value and the codec key — no network
// or database I/O happens during validation.
//
// Lifetime policy: sliding window. Every successful validation re-issues the
// cookie with the full CookieMaxAge, so a session only expires after
// 15 days of inactivity, not 15 days after issuance.
type Gate struct {
	codec *token.Codec
}

// NewGate creates a Gate validating cookies against the given codec.
func NewGate(codec *token.Codec) *Gate {
	return &Gate{codec: codec}
}

// SetCookie writes the session cookie with the standard attributes.
func SetCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie immediately.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Require enforces authentication on protected routes. The three failure
// modes map to distinct reasons so clients can tell a missing session from
// a damaged one:
//
//   - cookie absent            → "no auth"
//   - codec rejects the value  → "invalid session"
//   - decrypted bytes not JSON → "corrupt session"
//
// On success the cookie is renewed (sliding expiry) and the decoded Session
// is stored in the request context for handlers to read via FromContext.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			unauthorized(w, "no auth")
			return
		}

		plaintext, err := g.codec.Decrypt(cookie.Value)
		if err != nil {
			unauthorized(w, "invalid session")
			return
		}

		var p payload
		if err := json.Unmarshal([]byte(plaintext), &p); err != nil {
			unauthorized(w, "corrupt session")
			return
		}

		SetCookie(w, cookie.Value)

		ctx := WithSession(r.Context(), Session{
			Token:  p.G,
			UserID: p.I,
			Role:   p.T,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"success":false,"reason":%q}`, reason)
}
