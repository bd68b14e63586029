package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/serosis/internal/model/messages"
)

func TestUpstreamGetJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/field-health", r.URL.Path)
		_, _ = w.Write([]byte(`{"health_score":91,"crop":"Rice","optimal_range":"50-70%"}`))
	}))
	defer ts.Close()

	u := NewUpstream("field-health", ts.URL+"/", "api/field-health", time.Second, mkCB("t", 3, time.Second, time.Minute))
	var out struct {
		HealthScore float64 `json:"health_score"`
		Crop        string  `json:"crop"`
	}
	require.NoError(t, u.GetJSON(context.Background(), &out))
	assert.Equal(t, 91.0, out.HealthScore)
	assert.Equal(t, "Rice", out.Crop)
}

func TestUpstreamPostJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req messages.ChangeLanguageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hi", req.LanguageCode)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer ts.Close()

	u := NewUpstream("language", ts.URL, "/api/change-language", time.Second, mkCB("t", 3, time.Second, time.Minute))
	var resp messages.ChangeLanguageResponse
	require.NoError(t, u.PostJSON(context.Background(), messages.ChangeLanguageRequest{LanguageCode: "hi"}, &resp))
	assert.True(t, resp.OK())
}

func TestUpstreamErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad-json" {
			_, _ = w.Write([]byte(`{"oops`))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	u := NewUpstream("weather", ts.URL, "/api/weather", time.Second, mkCB("t", 10, time.Second, time.Minute))
	err := u.GetJSON(context.Background(), &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather upstream status 500")

	u = NewUpstream("weather", ts.URL, "/bad-json", time.Second, mkCB("t", 10, time.Second, time.Minute))
	err = u.GetJSON(context.Background(), &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather decode error")
}

func TestUpstreamBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	u := NewUpstream("sensors", ts.URL, "/api/sensors", time.Second, mkCB("sensors", 2, time.Minute, time.Minute))
	for i := 0; i < 2; i++ {
		assert.Error(t, u.GetJSON(context.Background(), &struct{}{}))
	}
	assert.Equal(t, gobreaker.StateOpen, u.State())

	err := u.GetJSON(context.Background(), &struct{}{})
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not reach the backend")
}

func TestUpstreamCancelledRequestDoesNotTrip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	u := NewUpstream("sensors", ts.URL, "/api/sensors", time.Second, mkCB("sensors", 1, time.Minute, time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, u.GetJSON(ctx, &struct{}{}))
	assert.Equal(t, gobreaker.StateClosed, u.State())
}

func TestClientYieldMissingPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"prediction":null}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Second, 5, time.Second, time.Minute)
	_, err := c.Yield(context.Background())
	assert.ErrorIs(t, err, ErrMissingPayload)
}

func TestClientChangeLanguageRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"unsupported language"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Second, 5, time.Second, time.Minute)
	err := c.ChangeLanguage(context.Background(), "fr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestClientSensorsNull(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Second, 5, time.Second, time.Minute)
	snap, err := c.Sensors(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Len(t, snap, 0)
}
