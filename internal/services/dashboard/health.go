package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

type errorAger interface {
	LastErrorAge() time.Duration
}

type healthHandler struct {
	s *Session
}

// NewHealthHandler reports push channel, breakers and archive state.
func NewHealthHandler(s *Session) http.Handler {
	return &healthHandler{s: s}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status          string            `json:"status"`
		PushConnected   bool              `json:"push_connected"`
		Language        string            `json:"language"`
		View            View              `json:"view"`
		Breakers        map[string]string `json:"breakers"`
		LastWriteErrorS *float64          `json:"last_write_error_age_sec,omitempty"`
	}
	st := status{
		PushConnected: h.s.Connected(),
		Language:      h.s.Language(),
		View:          h.s.View(),
		Breakers:      map[string]string{},
	}
	open := 0
	for d, state := range h.s.Client().BreakerStates() {
		st.Breakers[string(d)] = state.String()
		if state == gobreaker.StateOpen {
			open++
		}
	}
	archiveOK := true
	if a, ok := h.s.cfg.Archive.(errorAger); ok {
		age := a.LastErrorAge().Seconds()
		st.LastWriteErrorS = &age
		archiveOK = a.LastErrorAge() > 30*time.Second
	}

	// ok se canale aperto, nessun breaker aperto e nessun errore recente
	switch {
	case st.PushConnected && open == 0 && archiveOK:
		st.Status = "ok"
	case st.PushConnected || open < len(st.Breakers):
		st.Status = "degraded"
	default:
		st.Status = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// Handler /readyz: 200 solo se il canale push è aperto e il breaker dei
// sensori non è aperto.
type readyHandler struct {
	s *Session
}

func NewReadyHandler(s *Session) http.Handler {
	return &readyHandler{s: s}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := h.s.Connected() && h.s.Client().BreakerStates()[DomainSensors] != gobreaker.StateOpen
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: ready})
}
