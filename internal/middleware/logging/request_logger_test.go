package loggingmw

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"
)

type logLine struct {
	Level     string `json:"level"`
	Msg       string `json:"msg"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id"`
}

func newLoggedApp(buf *bytes.Buffer) *echo.Echo {
	logger := slog.New(slog.NewJSONHandler(buf, nil))

	e := echo.New()
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(logger))

	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/denied", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})
	return e
}

func lastLine(t *testing.T, buf *bytes.Buffer) logLine {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var line logLine
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &line))
	return line
}

func TestGeneratedRequestIDIsLogged(t *testing.T) {
	var buf bytes.Buffer
	e := newLoggedApp(&buf)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// No client-supplied id; the id minted by the server must still land
	// in the log line and match the response header.
	line := lastLine(t, &buf)
	require.NotEmpty(t, line.RequestID)
	require.Equal(t, rec.Header().Get(echo.HeaderXRequestID), line.RequestID)
}

func TestClientRequestIDIsKept(t *testing.T) {
	var buf bytes.Buffer
	e := newLoggedApp(&buf)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(echo.HeaderXRequestID, "client-id-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, "client-id-1", lastLine(t, &buf).RequestID)
}

func TestCompletionLogLevels(t *testing.T) {
	var buf bytes.Buffer
	e := newLoggedApp(&buf)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	line := lastLine(t, &buf)
	require.Equal(t, "INFO", line.Level)
	require.Equal(t, http.StatusOK, line.Status)

	// Rejected auth attempts are routine, not server errors.
	buf.Reset()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/denied", nil))
	line = lastLine(t, &buf)
	require.Equal(t, "WARN", line.Level)
	require.Equal(t, http.StatusUnauthorized, line.Status)

	buf.Reset()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	line = lastLine(t, &buf)
	require.Equal(t, "ERROR", line.Level)
	require.Equal(t, http.StatusInternalServerError, line.Status)
}
