package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sessionHandler(seen *string) http.Handler {
	return SessionMiddleware("sessionid", 24*time.Hour, false, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen, _ = GetSessionID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
}

func responseCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestSessionMiddleware_IssuesCookie(t *testing.T) {
	var seen string
	w := httptest.NewRecorder()
	sessionHandler(&seen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, session.ValidID(seen))
	cookie := responseCookie(t, w, "sessionid")
	assert.Equal(t, seen, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 86400, cookie.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestSessionMiddleware_KeepsExistingSession(t *testing.T) {
	sid := session.NewID()
	var seen string

	req := httptest.NewRequest(http.MethodGet, "/cart/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: sid})
	w := httptest.NewRecorder()
	sessionHandler(&seen).ServeHTTP(w, req)

	assert.Equal(t, sid, seen)
	assert.Equal(t, sid, responseCookie(t, w, "sessionid").Value)
}

func TestSessionMiddleware_ReplacesForgedID(t *testing.T) {
	var seen string

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "../../etc/passwd"})
	w := httptest.NewRecorder()
	sessionHandler(&seen).ServeHTTP(w, req)

	assert.NotEqual(t, "../../etc/passwd", seen)
	assert.True(t, session.ValidID(seen))
}

func TestGetSessionID_Missing(t *testing.T) {
	_, ok := GetSessionID(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
