package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/serosis/internal/i18n"
	"github.com/LeonardoBeccarini/serosis/internal/model"
	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
	"github.com/LeonardoBeccarini/serosis/internal/view"
	"github.com/LeonardoBeccarini/serosis/pkg/metrics"
)

type memArchive struct {
	mu     sync.Mutex
	points []HistoryPoint
	closed bool
}

func (a *memArchive) Record(_ context.Context, p HistoryPoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.points = append(a.points, p)
	return nil
}

func (a *memArchive) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

func (a *memArchive) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.points)
}

func newTestSync(archive HistoryArchive) (*Synchronizer, *view.Document, *metrics.Metrics) {
	doc := view.NewDocument(i18n.New(nil), i18n.English)
	m := metrics.New(nil)
	return NewSynchronizer(doc, m, archive, 5*time.Second), doc, m
}

func snapshot(ids ...string) model.SensorSnapshot {
	out := model.SensorSnapshot{}
	for _, id := range ids {
		out = append(out, entities.SensorEntry{ID: id, Record: entities.SensorRecord{Name: id, Moisture: 40}})
	}
	return out
}

func cardCount(t *testing.T, doc *view.Document) int {
	t.Helper()
	root, ok := doc.Region(view.RegionSensors)
	require.True(t, ok)
	return len(root.FindClass("sensor-item"))
}

func TestFenceDiscardsOlderResponse(t *testing.T) {
	f := NewFence()
	first := f.Issue(DomainSensors)
	second := f.Issue(DomainSensors)

	var applied []uint64
	assert.True(t, f.Apply(DomainSensors, second, func() { applied = append(applied, second) }))
	assert.False(t, f.Apply(DomainSensors, first, func() { applied = append(applied, first) }))
	assert.Equal(t, []uint64{second}, applied)

	// i domini sono indipendenti
	w := f.Issue(DomainWeather)
	assert.Equal(t, uint64(1), w)
	assert.True(t, f.Apply(DomainWeather, w, func() {}))
}

func TestSensorsOutOfOrderKeepsNewest(t *testing.T) {
	s, doc, m := newTestSync(nil)
	old := s.Issue(DomainSensors)
	fresh := s.Issue(DomainSensors)

	assert.True(t, s.Sensors(fresh, snapshot("a", "b", "c")))
	assert.False(t, s.Sensors(old, snapshot("a")))

	assert.Equal(t, 3, cardCount(t, doc))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleDiscards.WithLabelValues(string(DomainSensors))))
}

func TestSensorsWholesaleReplace(t *testing.T) {
	s, doc, _ := newTestSync(nil)
	require.True(t, s.Sensors(s.Issue(DomainSensors), snapshot("a", "b", "c")))
	require.True(t, s.Sensors(s.Issue(DomainSensors), snapshot("d")))

	root, _ := doc.Region(view.RegionSensors)
	assert.Equal(t, 1, cardCount(t, doc))
	assert.NotNil(t, root.Find("sensor-d"))
	assert.Nil(t, root.Find("sensor-a"))
}

func TestFailedYieldAlwaysShowsFallback(t *testing.T) {
	s, doc, _ := newTestSync(nil)
	require.True(t, s.Yield(s.Issue(DomainYield), entities.YieldPrediction{PredictedYield: "4.2"}))
	require.True(t, s.Failed(s.Issue(DomainYield), DomainYield))

	root, ok := doc.Region(view.RegionYield)
	require.True(t, ok)
	assert.Nil(t, root.Find("predictedYield"))
	assert.Equal(t, "Prediction temporarily unavailable", root.Find("yieldRecommendation").Text)
}

func TestFailedWeatherKeepsLastGood(t *testing.T) {
	s, doc, _ := newTestSync(nil)

	require.True(t, s.Failed(s.Issue(DomainWeather), DomainWeather))
	root, _ := doc.Region(view.RegionWeather)
	assert.Len(t, root.FindClass("unavailable"), 1)

	require.True(t, s.Weather(s.Issue(DomainWeather), entities.WeatherSnapshot{Current: &entities.CurrentWeather{Temperature: 21, Description: "Sunny"}}))
	require.True(t, s.Failed(s.Issue(DomainWeather), DomainWeather))
	root, _ = doc.Region(view.RegionWeather)
	assert.Empty(t, root.FindClass("unavailable"))
	assert.NotNil(t, root.Find("weatherTemp"))
}

func TestFailureDoesNotHideLaterResponse(t *testing.T) {
	s, doc, _ := newTestSync(nil)
	failedSeq := s.Issue(DomainHarvest)
	okSeq := s.Issue(DomainHarvest)

	require.True(t, s.Harvest(okSeq, entities.HarvestPrediction{Message: "ready soon"}))
	assert.False(t, s.Failed(failedSeq, DomainHarvest))

	root, _ := doc.Region(view.RegionHarvest)
	assert.Equal(t, "ready soon", root.Find("harvestMessage").Text)
}

func TestFieldMapFillsThreeRegions(t *testing.T) {
	s, doc, _ := newTestSync(nil)
	fm := model.FieldMap{
		Grid:            [][]float64{{10, 55}, {80, 45}},
		Recommendations: []string{"Irrigate zone A"},
		SensorCount:     2,
	}
	require.True(t, s.FieldMap(s.Issue(DomainFieldMap), fm))
	for _, r := range []string{view.RegionFieldMap, view.RegionRecommendations, view.RegionMapInfo} {
		assert.True(t, doc.Has(r), r)
	}
}

func TestHistoryWindowAndArchive(t *testing.T) {
	arch := &memArchive{}
	s, doc, _ := newTestSync(arch)
	for i := 0; i < view.HistoryCapacity+3; i++ {
		require.True(t, s.History(context.Background(), s.Issue(DomainHistory), model.HistorySample{Moisture: float64(i)}))
	}
	assert.Equal(t, view.HistoryCapacity, s.HistoryLen())
	assert.Equal(t, view.HistoryCapacity+3, arch.len())
	assert.Equal(t, "0s", arch.points[0].Label)
	assert.Equal(t, "5s", arch.points[1].Label)

	// un tick vecchio non arriva all'archivio
	stale := s.Issue(DomainHistory)
	require.True(t, s.History(context.Background(), s.Issue(DomainHistory), model.HistorySample{}))
	assert.False(t, s.History(context.Background(), stale, model.HistorySample{}))
	assert.Equal(t, view.HistoryCapacity+4, arch.len())

	s.ResetAnalytics()
	assert.Equal(t, 0, s.HistoryLen())
	assert.False(t, doc.Has(view.RegionHistory))
}
