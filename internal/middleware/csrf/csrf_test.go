package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newApp(cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(cfg))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/ping", ok)
	e.POST("/auth/refresh", ok)
	e.POST("/auth/login", ok)
	return e
}

func csrfCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "XSRF-TOKEN" {
			return ck
		}
	}
	t.Fatal("no XSRF-TOKEN cookie set")
	return nil
}

func TestGetIssuesToken(t *testing.T) {
	e := newApp(Config{EnforceSameOrigin: false})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	ck := csrfCookie(t, rec)
	require.NotEmpty(t, ck.Value)
	require.False(t, ck.HttpOnly)
	require.Equal(t, ck.Value, rec.Header().Get("X-CSRF-Token"))
}

func TestPostRequiresMatchingHeader(t *testing.T) {
	e := newApp(Config{EnforceSameOrigin: false})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	ck := csrfCookie(t, rec)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(ck)
	req.Header.Set("X-CSRF-Token", ck.Value)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Missing and mismatched headers are both rejected.
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(ck)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(ck)
	req.Header.Set("X-CSRF-Token", "forged")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSkipPaths(t *testing.T) {
	e := newApp(Config{EnforceSameOrigin: false, SkipPaths: []string{"/auth/login"}})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSameOriginEnforced(t *testing.T) {
	e := newApp(Config{EnforceSameOrigin: true})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	ck := csrfCookie(t, rec)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(ck)
	req.Header.Set("X-CSRF-Token", ck.Value)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(ck)
	req.Header.Set("X-CSRF-Token", ck.Value)
	req.Header.Set("Origin", "http://"+req.Host)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
