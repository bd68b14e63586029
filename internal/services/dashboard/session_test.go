package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/serosis/internal/services/simulator"
	"github.com/LeonardoBeccarini/serosis/internal/view"
)

type testEnv struct {
	s   *Session
	srv *simulator.Server
	ts  *httptest.Server
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()
	srv := simulator.NewServer(simulator.NewField(3, "Wheat", 1), nil, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Hub().CloseAll()
		ts.Close()
	})

	cfg := Config{
		BaseURL:           ts.URL,
		ReconnectDelay:    50 * time.Millisecond,
		SensorInterval:    time.Hour,
		WeatherInterval:   time.Hour,
		AnalyticsInterval: time.Hour,
		HistoryInterval:   time.Hour,
		NotificationTTL:   time.Minute,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewSession(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return &testEnv{s: s, srv: srv, ts: ts}
}

func (e *testEnv) start(t *testing.T) {
	t.Helper()
	require.NoError(t, e.s.Start(context.Background()))
	assert.Eventually(t, func() bool { return e.s.Connected() && e.srv.Hub().Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return e.s.Document().Has(view.RegionSensors) }, 2*time.Second, 10*time.Millisecond)
}

func (e *testEnv) note() string {
	if n, ok := e.s.Notifications().Current(); ok {
		return n.Message
	}
	return ""
}

func (e *testEnv) region(t *testing.T, name string) *view.Node {
	t.Helper()
	n, ok := e.s.Document().Region(name)
	require.True(t, ok, name)
	return n
}

func TestNewSessionRejectsBadConfig(t *testing.T) {
	_, err := NewSession(Config{})
	assert.Error(t, err)

	_, err = NewSession(Config{BaseURL: "http://localhost", View: "settings", PushTransport: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown view")
	assert.Contains(t, err.Error(), "unknown push transport")

	_, err = NewSession(Config{BaseURL: "http://localhost", PushTransport: PushMQTT})
	assert.ErrorContains(t, err, "broker host")
}

func TestStartRendersSensorsAndChrome(t *testing.T) {
	e := newTestEnv(t, nil)
	e.start(t)

	root := e.region(t, view.RegionSensors)
	assert.Len(t, root.FindClass("sensor-item"), 3)
	assert.Equal(t, "Field Sensors (3 active)", root.Find("sensors-header").Text)
	assert.True(t, e.s.Document().Has(view.RegionChrome))
	assert.Eventually(t, func() bool { return e.s.Document().Has(view.RegionWeather) }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, ViewDashboard, e.s.View())

	assert.ErrorContains(t, e.s.Start(context.Background()), "already started")
}

func TestPushUpdatesSensorsAndNotifies(t *testing.T) {
	e := newTestEnv(t, nil)
	e.start(t)

	e.srv.PushSensors()
	assert.Eventually(t, func() bool { return e.note() == "Sensor data updated" }, 2*time.Second, 10*time.Millisecond)
	n, _ := e.s.Notifications().Current()
	assert.Equal(t, "notification notification-success", n.Class())
}

func TestMalformedPushIsIgnored(t *testing.T) {
	e := newTestEnv(t, nil)
	e.start(t)

	before := e.region(t, view.RegionSensors)
	e.s.HandlePush([]byte(`{not json`))
	e.s.HandlePush([]byte(`{"type":"irrigation_started"}`))
	after := e.region(t, view.RegionSensors)
	assert.Equal(t, before, after)
	assert.Empty(t, e.note())
}

func TestChangeLanguageRelabels(t *testing.T) {
	e := newTestEnv(t, nil)
	e.start(t)

	require.NoError(t, e.s.ChangeLanguage(context.Background(), "hi"))
	assert.Equal(t, "hi", e.s.Language())
	assert.Equal(t, "hi", e.srv.Language())
	assert.Equal(t, "Language changed to Hindi", e.note())

	header := e.region(t, view.RegionSensors).Find("sensors-header")
	assert.True(t, strings.HasPrefix(header.Text, "खेत सेंसर"), header.Text)

	// il nome del sensore non è un'etichetta e non cambia
	cards := e.region(t, view.RegionSensors).FindClass("sensor-name")
	require.NotEmpty(t, cards)
	assert.Equal(t, "Zone A", cards[0].Text)
}

func TestChangeLanguageRejected(t *testing.T) {
	e := newTestEnv(t, nil)
	e.start(t)

	assert.Error(t, e.s.ChangeLanguage(context.Background(), "fr"))
	assert.Equal(t, "Failed to change language", e.note())
	assert.Equal(t, "en", e.s.Language())

	e.srv.SetFailing("/api/change-language", http.StatusInternalServerError)
	assert.Error(t, e.s.ChangeLanguage(context.Background(), "hi"))
	assert.Equal(t, "en", e.s.Language())
}

func TestLanguagePushRelabels(t *testing.T) {
	e := newTestEnv(t, nil)
	e.start(t)

	e.s.HandlePush([]byte(`{"type":"language_changed","language":"hi"}`))
	assert.Equal(t, "hi", e.s.Language())
	header := e.region(t, view.RegionSensors).Find("sensors-header")
	assert.Contains(t, header.Text, "सक्रिय")
}

func TestSensorsFailureKeepsCards(t *testing.T) {
	e := newTestEnv(t, nil)
	e.start(t)

	e.srv.SetFailing("/api/sensors", http.StatusInternalServerError)
	e.s.RefreshSensors(context.Background())
	assert.Equal(t, "Failed to load sensors", e.note())
	n, _ := e.s.Notifications().Current()
	assert.Equal(t, "notification notification-error", n.Class())
	assert.Len(t, e.region(t, view.RegionSensors).FindClass("sensor-item"), 3)
}

func TestAnalyticsLifecycle(t *testing.T) {
	e := newTestEnv(t, func(c *Config) { c.HistoryInterval = 20 * time.Millisecond })
	e.start(t)

	e.s.EnterAnalytics()
	e.s.EnterAnalytics()
	assert.Equal(t, ViewAnalytics, e.s.View())
	assert.Len(t, e.s.Scheduler().Group(GroupAnalytics).Tasks(), 5)

	analytics := []string{view.RegionFieldMap, view.RegionRecommendations, view.RegionMapInfo,
		view.RegionHealth, view.RegionYield, view.RegionHarvest, view.RegionHistory}
	assert.Eventually(t, func() bool {
		for _, r := range analytics {
			if !e.s.Document().Has(r) {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return e.s.Synchronizer().HistoryLen() >= 2 }, 2*time.Second, 10*time.Millisecond)

	e.s.LeaveAnalytics()
	assert.Equal(t, ViewDashboard, e.s.View())
	assert.False(t, e.s.Scheduler().Active(GroupAnalytics))
	time.Sleep(60 * time.Millisecond)
	for _, r := range analytics {
		assert.False(t, e.s.Document().Has(r), r)
	}
	assert.Equal(t, 0, e.s.Synchronizer().HistoryLen())
	assert.True(t, e.s.Document().Has(view.RegionSensors))
}

func TestYieldFailureShowsFallback(t *testing.T) {
	e := newTestEnv(t, func(c *Config) { c.View = ViewAnalytics })
	e.srv.SetFailing("/api/predict-yield", http.StatusServiceUnavailable)
	e.start(t)

	assert.Eventually(t, func() bool { return e.s.Document().Has(view.RegionYield) }, 2*time.Second, 10*time.Millisecond)
	y := e.region(t, view.RegionYield)
	assert.Equal(t, "Prediction temporarily unavailable", y.Find("yieldRecommendation").Text)
	assert.Eventually(t, func() bool { return e.s.Document().Has(view.RegionHarvest) }, 2*time.Second, 10*time.Millisecond)
	assert.NotNil(t, e.region(t, view.RegionHarvest).Find("harvestDate"))
}

func TestReconnectAfterServerDrop(t *testing.T) {
	e := newTestEnv(t, nil)
	e.start(t)

	e.srv.Hub().CloseAll()
	assert.Eventually(t, func() bool { return e.srv.Hub().Len() == 1 && e.s.Connected() }, 2*time.Second, 10*time.Millisecond)
}

func TestCloseTearsDown(t *testing.T) {
	e := newTestEnv(t, nil)
	e.start(t)
	e.srv.PushSensors()
	assert.Eventually(t, func() bool { return e.note() != "" }, 2*time.Second, 10*time.Millisecond)

	e.s.Close()
	e.s.Close()
	assert.Empty(t, e.s.Document().Regions())
	assert.False(t, e.s.Connected())
	assert.Empty(t, e.note())
	assert.ErrorIs(t, e.s.Start(context.Background()), ErrClosed)

	// i push dopo la chiusura non riportano nulla sul documento
	e.s.HandlePush([]byte(`{"type":"sensor_update","sensors":{}}`))
	assert.False(t, e.s.Document().Has(view.RegionSensors))
}

func TestLateFailureDoesNotHideNewerYield(t *testing.T) {
	var hits atomic.Int32
	firstIn := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(firstIn)
			time.Sleep(300 * time.Millisecond)
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prediction":{"predicted_yield":"fresh","confidence":"high"}}`))
	}))
	defer ts.Close()

	s, err := NewSession(Config{BaseURL: ts.URL})
	require.NoError(t, err)
	defer s.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RefreshYield(context.Background())
	}()
	<-firstIn
	s.RefreshYield(context.Background())

	y, ok := s.Document().Region(view.RegionYield)
	require.True(t, ok)
	require.NotNil(t, y.Find("predictedYield"))
	assert.Equal(t, "fresh", y.Find("predictedYield").Text)

	<-done
	y, _ = s.Document().Region(view.RegionYield)
	require.NotNil(t, y.Find("predictedYield"), "older failure replaced a newer prediction")
	assert.Equal(t, "fresh", y.Find("predictedYield").Text)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics().StaleDiscards.WithLabelValues(string(DomainYield))))
}

func TestLatestFailureStillShowsFallback(t *testing.T) {
	e := newTestEnv(t, nil)
	e.start(t)

	e.s.RefreshHarvest(context.Background())
	require.NotNil(t, e.region(t, view.RegionHarvest).Find("harvestDate"))

	e.srv.SetFailing("/api/harvest-prediction", http.StatusServiceUnavailable)
	e.s.RefreshHarvest(context.Background())
	h := e.region(t, view.RegionHarvest)
	assert.Nil(t, h.Find("harvestDate"))
	assert.Equal(t, "Harvest prediction temporarily unavailable", h.Find("harvestMessage").Text)
}

func TestEnterLeaveAnalyticsStayConsistent(t *testing.T) {
	e := newTestEnv(t, nil)
	e.start(t)

	for i := 0; i < 20; i++ {
		e.s.EnterAnalytics()
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			e.s.LeaveAnalytics()
		}()
		go func() {
			defer wg.Done()
			e.s.EnterAnalytics()
		}()
		wg.Wait()
		assert.Equal(t, e.s.View() == ViewAnalytics, e.s.Scheduler().Active(GroupAnalytics), "round %d", i)
	}

	e.s.LeaveAnalytics()
	e.s.EnterAnalytics()
	assert.Equal(t, ViewAnalytics, e.s.View())
	assert.True(t, e.s.Scheduler().Active(GroupAnalytics))
	assert.Len(t, e.s.Scheduler().Group(GroupAnalytics).Tasks(), 5)
}
