package middleware

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/session"

	"go.uber.org/zap"
)

// SessionMiddleware makes sure every visitor carries a session cookie.
// Missing or malformed ids are replaced with a fresh one.
func SessionMiddleware(cookieName string, ttl time.Duration, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sid string
			if cookie, err := r.Cookie(cookieName); err == nil && session.ValidID(cookie.Value) {
				sid = cookie.Value
			} else {
				sid = session.NewID()
				logger.Debug("Issuing session cookie", zap.String("path", r.URL.Path))
			}

			// Refresh on every request so active carts do not expire.
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), SessionIDKey, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID extracts the visitor session id from request context
func GetSessionID(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(SessionIDKey).(string)
	return sid, ok && sid != ""
}
