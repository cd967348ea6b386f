// Package identity assigns a conversation id to every HTTP request.
package identity

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SessionCookieName = "datequiz_session"
	SessionHeaderName = "X-Session-ID"
	sessionCookieAge  = 24 * time.Hour
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	generatedKey
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// SessionIDFromContext extracts the conversation id from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionID returns a context carrying a conversation id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// Generated reports whether the request's conversation id was minted by
// the middleware rather than supplied by the client.
func Generated(ctx context.Context) bool {
	v, _ := ctx.Value(generatedKey).(bool)
	return v
}

// NewSessionID mints a fresh conversation id.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether id is usable as a conversation id.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

func sessionIDFromRequest(r *http.Request) string {
	for _, sid := range []string{
		r.Header.Get(SessionHeaderName),
		r.URL.Query().Get("session_id"),
	} {
		if sid = strings.TrimSpace(sid); ValidSessionID(sid) {
			return sid
		}
	}
	if c, err := r.Cookie(SessionCookieName); err == nil && ValidSessionID(c.Value) {
		return c.Value
	}
	return ""
}

// Middleware resolves the conversation id from the X-Session-ID header,
// the session_id query parameter or the session cookie, minting a new one
// when none is present. The id is echoed in the response header and cookie.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r)
			generated := false
			if sessionID == "" {
				sessionID = NewSessionID()
				generated = true
			}

			w.Header().Set(SessionHeaderName, sessionID)
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(sessionCookieAge.Seconds()),
				Expires:  time.Now().Add(sessionCookieAge),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   !isDev,
			})

			ctx := WithSessionID(r.Context(), sessionID)
			ctx = context.WithValue(ctx, generatedKey, generated)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IPFromRequest returns a normalized remote IP for request logging.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
