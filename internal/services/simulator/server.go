// Package simulator serves the dashboard backend surface with generated
// field data, for local runs and end-to-end tests.
package simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/serosis/internal/i18n"
	"github.com/LeonardoBeccarini/serosis/internal/model"
	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
	"github.com/LeonardoBeccarini/serosis/internal/model/messages"
	"github.com/LeonardoBeccarini/serosis/pkg/rabbitmq"
)

type Server struct {
	field     *Field
	weather   WeatherSource
	hub       *Hub
	publisher rabbitmq.IPublisher

	mu       sync.RWMutex
	language string
	failing  map[string]int

	log *logrus.Entry
}

// NewServer wires the generator and the weather source. publisher may be
// nil when MQTT is not used.
func NewServer(field *Field, weather WeatherSource, publisher rabbitmq.IPublisher) *Server {
	if weather == nil {
		weather = NewSyntheticWeather(field)
	}
	return &Server{
		field:     field,
		weather:   weather,
		hub:       NewHub(),
		publisher: publisher,
		language:  i18n.Default,
		failing:   map[string]int{},
		log:       logrus.WithField("component", "simulator"),
	}
}

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetFailing makes path answer with status until cleared with status 0.
func (s *Server) SetFailing(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failing, path)
		return
	}
	s.failing[path] = status
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/api/sensors", s.get(func(_ *http.Request) (any, error) { return s.field.Snapshot(), nil }))
	mux.HandleFunc("/api/weather", s.get(func(r *http.Request) (any, error) { return s.weather.Current(r.Context()) }))
	mux.HandleFunc("/api/field-map", s.get(func(_ *http.Request) (any, error) { return s.field.FieldMap(), nil }))
	mux.HandleFunc("/api/field-health", s.get(func(_ *http.Request) (any, error) { return s.field.Health(), nil }))
	mux.HandleFunc("/api/predict-yield", s.get(func(_ *http.Request) (any, error) {
		p := s.field.Yield()
		return entities.YieldResponse{Prediction: &p}, nil
	}))
	mux.HandleFunc("/api/harvest-prediction", s.get(func(_ *http.Request) (any, error) {
		p := s.field.Harvest()
		return entities.HarvestResponse{HarvestPrediction: &p}, nil
	}))
	mux.HandleFunc("/api/data", s.get(func(_ *http.Request) (any, error) { return s.field.Sample(), nil }))
	mux.HandleFunc("/api/change-language", s.handleChangeLanguage)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) fault(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failing[path]
}

func (s *Server) get(fn func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if code := s.fault(r.URL.Path); code != 0 {
			http.Error(w, http.StatusText(code), code)
			return
		}
		v, err := fn(r)
		if err != nil {
			s.log.WithField("path", r.URL.Path).WithError(err).Warn("handler failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) handleChangeLanguage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if code := s.fault(r.URL.Path); code != 0 {
		http.Error(w, http.StatusText(code), code)
		return
	}
	var req messages.ChangeLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messages.ChangeLanguageResponse{Status: "error", Message: "invalid body"})
		return
	}
	switch req.LanguageCode {
	case i18n.English, i18n.Hindi:
	default:
		writeJSON(w, http.StatusOK, messages.ChangeLanguageResponse{Status: "error", Message: "unsupported language"})
		return
	}

	s.mu.Lock()
	s.language = req.LanguageCode
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, messages.ChangeLanguageResponse{Status: messages.StatusSuccess})

	s.broadcast(&messages.LanguageChanged{Language: req.LanguageCode})
	s.log.WithFields(logrus.Fields{"event": "language", "language": req.LanguageCode}).Info("language changed")
}

// PushSensors broadcasts the current snapshot.
func (s *Server) PushSensors() {
	s.broadcast(&messages.SensorUpdate{Sensors: s.field.Snapshot()})
}

func (s *Server) broadcast(p model.Push) {
	payload, err := messages.Encode(p)
	if err != nil {
		s.log.WithError(err).Error("encode push")
		return
	}
	_ = s.hub.BroadcastRaw(payload)
	if s.publisher != nil {
		if err := s.publisher.PublishMessage(payload); err != nil {
			s.log.WithError(err).Warn("mqtt publish failed")
		}
	}
}

// Run advances the field and pushes a sensor update every interval.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			s.hub.CloseAll()
			if s.publisher != nil {
				s.publisher.Close()
			}
			return
		case <-tk.C:
			s.field.Step()
			s.PushSensors()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
