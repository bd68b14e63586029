package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/serosis/internal/model"
	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
	"github.com/LeonardoBeccarini/serosis/internal/view"
	"github.com/LeonardoBeccarini/serosis/pkg/metrics"
)

// Fence orders responses per domain. Every request takes a sequence
// number when issued; a response is applied only if no later-issued
// response of the same domain was applied before it.
type Fence struct {
	mu      sync.Mutex
	issued  map[Domain]uint64
	applied map[Domain]uint64
}

func NewFence() *Fence {
	return &Fence{issued: map[Domain]uint64{}, applied: map[Domain]uint64{}}
}

// Issue returns the next sequence number of d.
func (f *Fence) Issue(d Domain) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued[d]++
	return f.issued[d]
}

// Apply runs fn if seq is newer than the last applied response of d.
// fn runs under the fence lock so check and apply are one step.
func (f *Fence) Apply(d Domain, seq uint64, fn func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq <= f.applied[d] {
		return false
	}
	f.applied[d] = seq
	fn()
	return true
}

// Synchronizer applies snapshots to the document, one region per domain,
// discarding stale responses.
type Synchronizer struct {
	doc     *view.Document
	fence   *Fence
	m       *metrics.Metrics
	archive HistoryArchive

	histMu  sync.Mutex
	history *view.Window

	log *logrus.Entry
}

func NewSynchronizer(doc *view.Document, m *metrics.Metrics, archive HistoryArchive, historyStep time.Duration) *Synchronizer {
	return &Synchronizer{
		doc:     doc,
		fence:   NewFence(),
		m:       m,
		archive: archive,
		history: view.NewWindow(view.HistoryCapacity, historyStep),
		log:     logrus.WithField("component", "synchronizer"),
	}
}

// Issue takes a sequence number before a request for d is sent.
func (s *Synchronizer) Issue(d Domain) uint64 { return s.fence.Issue(d) }

func (s *Synchronizer) apply(d Domain, seq uint64, fn func()) bool {
	if s.fence.Apply(d, seq, fn) {
		return true
	}
	if s.m != nil {
		s.m.StaleDiscards.WithLabelValues(string(d)).Inc()
	}
	s.log.WithFields(logrus.Fields{"event": "stale", "domain": d, "seq": seq}).Debug("discarding stale response")
	return false
}

func (s *Synchronizer) Sensors(seq uint64, snap model.SensorSnapshot) bool {
	return s.apply(DomainSensors, seq, func() {
		s.doc.Replace(view.RegionSensors, view.RenderSensors(snap))
	})
}

func (s *Synchronizer) Weather(seq uint64, w model.WeatherSnapshot) bool {
	return s.apply(DomainWeather, seq, func() {
		s.doc.Replace(view.RegionWeather, view.RenderWeather(w, s.doc.Translator()))
	})
}

// FieldMap refreshes the map, its recommendations and its info line.
func (s *Synchronizer) FieldMap(seq uint64, fm model.FieldMap) bool {
	return s.apply(DomainFieldMap, seq, func() {
		s.doc.Replace(view.RegionFieldMap, view.RenderFieldMap(fm))
		s.doc.Replace(view.RegionRecommendations, view.RenderRecommendations(fm.Recommendations))
		s.doc.Replace(view.RegionMapInfo, view.RenderMapInfo(fm))
	})
}

func (s *Synchronizer) FieldHealth(seq uint64, h model.FieldHealth) bool {
	return s.apply(DomainFieldHealth, seq, func() {
		s.doc.Replace(view.RegionHealth, view.RenderHealth(h))
	})
}

func (s *Synchronizer) Yield(seq uint64, p entities.YieldPrediction) bool {
	return s.apply(DomainYield, seq, func() {
		s.doc.Replace(view.RegionYield, view.RenderYield(p))
	})
}

func (s *Synchronizer) Harvest(seq uint64, p entities.HarvestPrediction) bool {
	return s.apply(DomainHarvest, seq, func() {
		s.doc.Replace(view.RegionHarvest, view.RenderHarvest(p))
	})
}

// Failed shows the fallback of a domain whose pull failed. Yield and
// harvest always switch to their fallback text; other regions keep the
// last good content and get a placeholder only if nothing was shown yet.
func (s *Synchronizer) Failed(seq uint64, d Domain) bool {
	return s.apply(d, seq, func() {
		switch d {
		case DomainYield:
			s.doc.Replace(view.RegionYield, view.RenderYieldUnavailable())
		case DomainHarvest:
			s.doc.Replace(view.RegionHarvest, view.RenderHarvestUnavailable())
		case DomainWeather:
			s.placeholder(view.RegionWeather, "weather", "weather_unavailable")
		case DomainFieldMap:
			s.placeholder(view.RegionFieldMap, "field-map", "field_map_unavailable")
		case DomainFieldHealth:
			s.placeholder(view.RegionHealth, "field-health", "health_unavailable")
		}
	})
}

func (s *Synchronizer) placeholder(region, class, key string) {
	if !s.doc.Has(region) {
		s.doc.Replace(region, view.Unavailable(class, key))
	}
}

// History appends one tick to the rolling windows and mirrors it to the
// archive, if any.
func (s *Synchronizer) History(ctx context.Context, seq uint64, sample model.HistorySample) bool {
	var label string
	ok := s.apply(DomainHistory, seq, func() {
		s.histMu.Lock()
		defer s.histMu.Unlock()
		label = s.history.Push(sample)
		s.doc.Replace(view.RegionHistory, view.RenderHistory(s.history))
	})
	if ok && s.archive != nil {
		if err := s.archive.Record(ctx, HistoryPoint{Label: label, Sample: sample, At: time.Now()}); err != nil {
			s.log.WithError(err).Warn("history archive write failed")
		}
	}
	return ok
}

// HistoryLen is the current number of points per series.
func (s *Synchronizer) HistoryLen() int {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	return s.history.Len()
}

// ResetAnalytics drops the analytics regions and the history windows.
func (s *Synchronizer) ResetAnalytics() {
	s.histMu.Lock()
	s.history.Reset()
	s.histMu.Unlock()
	s.doc.Remove(view.RegionFieldMap, view.RegionRecommendations, view.RegionMapInfo,
		view.RegionHealth, view.RegionYield, view.RegionHarvest, view.RegionHistory)
}
