package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriterHonoursEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	l := SetupWriter(&buf)
	l.Info("dropped")
	l.Warn("kept", "k", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec), buf.String())
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "choromap", rec["app"])
	assert.Same(t, l, L())
}

func TestAccessMiddlewareRecordsStatus(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	l := SetupWriter(&buf)
	h := AccessMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", "rid")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("abc"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/state", nil))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "http_access", rec["msg"])
	assert.EqualValues(t, http.StatusTeapot, rec["status"])
	assert.EqualValues(t, 3, rec["bytes"])
	assert.Equal(t, "rid", rec["request_id"])
}
