package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"signup/cmd/identity/ids"
	"signup/cmd/internal/requestid"

	"github.com/stretchr/testify/require"
)

func TestRequestLogMeta(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status     int
		wantLevel  slog.Level
		wantResult string
		wantClass  string
	}{
		{status: 200, wantLevel: slog.LevelInfo, wantResult: "success", wantClass: "2xx"},
		{status: 201, wantLevel: slog.LevelInfo, wantResult: "success", wantClass: "2xx"},
		{status: 302, wantLevel: slog.LevelInfo, wantResult: "redirect", wantClass: "3xx"},
		{status: 404, wantLevel: slog.LevelWarn, wantResult: "client_error", wantClass: "4xx"},
		{status: 503, wantLevel: slog.LevelError, wantResult: "server_error", wantClass: "5xx"},
	}

	for _, tc := range cases {
		level, result := requestLogMeta(tc.status)
		require.Equal(t, tc.wantLevel, level, "status=%d", tc.status)
		require.Equal(t, tc.wantResult, result, "status=%d", tc.status)
		require.Equal(t, tc.wantClass, statusClass(tc.status))
	}
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec), buf.String())
	return rec
}

func TestWithRequestLogging_GeneratesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var seen string
	h := WithRequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = requestid.FromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}), newLogger(&buf, "info"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/users", nil))

	got := rr.Header().Get(requestid.Header)
	require.True(t, ids.Valid(got), got)
	require.Equal(t, got, seen)

	rec := decodeLogLine(t, &buf)
	require.Equal(t, "http.request", rec["msg"])
	require.Equal(t, got, rec["request_id"])
	require.EqualValues(t, http.StatusCreated, rec["status"])
	require.Equal(t, "success", rec["result"])
}

func TestWithRequestLogging_KeepsInboundRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := WithRequestLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), newLogger(&buf, "info"))

	req := httptest.NewRequest(http.MethodPost, "/users", nil)
	req.Header.Set(requestid.Header, "client-abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "client-abc", rr.Header().Get(requestid.Header))

	rec := decodeLogLine(t, &buf)
	require.Equal(t, "ERROR", rec["level"])
	require.Equal(t, "5xx", rec["status_class"])
}

func TestLoggingResponseWriter_FirstStatusWins(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	lrw := &loggingResponseWriter{ResponseWriter: rr, status: http.StatusOK}
	lrw.WriteHeader(http.StatusConflict)
	lrw.WriteHeader(http.StatusOK)
	_, _ = lrw.Write([]byte("abc"))

	require.Equal(t, http.StatusConflict, lrw.status)
	require.EqualValues(t, 3, lrw.bytes)
}
