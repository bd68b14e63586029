package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type agedArchive struct {
	memArchive
	age time.Duration
}

func (a *agedArchive) LastErrorAge() time.Duration { return a.age }

func getJSON(t *testing.T, h http.Handler) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthBeforeStart(t *testing.T) {
	s, err := NewSession(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	defer s.Close()

	_, body := getJSON(t, NewHealthHandler(s))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, false, body["push_connected"])
	assert.Equal(t, "en", body["language"])
	assert.NotContains(t, body, "last_write_error_age_sec")

	code, ready := getJSON(t, NewReadyHandler(s))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, false, ready["ready"])
}

func TestHealthConnected(t *testing.T) {
	arch := &agedArchive{age: time.Hour}
	e := newTestEnv(t, func(c *Config) { c.Archive = arch })
	e.start(t)

	_, body := getJSON(t, NewHealthHandler(e.s))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["push_connected"])
	assert.Equal(t, "dashboard", body["view"])
	breakers, ok := body["breakers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "closed", breakers["sensors"])
	assert.InDelta(t, 3600, body["last_write_error_age_sec"], 1)

	code, ready := getJSON(t, NewReadyHandler(e.s))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, ready["ready"])

	// errore di scrittura recente: degradato
	arch.age = time.Second
	_, body = getJSON(t, NewHealthHandler(e.s))
	assert.Equal(t, "degraded", body["status"])
}
