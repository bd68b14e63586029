package view

import (
	"strings"

	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
)

// StatusClass maps a reading status to its CSS-like class.
func StatusClass(s entities.Status) string {
	switch s {
	case entities.StatusOptimal, entities.StatusGood, entities.StatusLow, entities.StatusHigh,
		entities.StatusCold, entities.StatusHot, entities.StatusDanger:
		return "status-" + strings.ToLower(string(s))
	default:
		return "status-unknown"
	}
}

// statusKey is the translation key of a status label.
func statusKey(s entities.Status) string {
	if s == "" {
		s = entities.StatusUnknown
	}
	return strings.ToLower(string(s))
}

// MoistureBand classifies a field map cell.
func MoistureBand(v float64) string {
	switch {
	case v < 30:
		return "critical"
	case v < 50:
		return "low"
	case v < 70:
		return "medium"
	default:
		return "high"
	}
}

// ConfidenceClass is the badge class; unknown levels keep only the generic class.
func ConfidenceClass(c entities.Confidence) string {
	if c.Known() {
		return "confidence-badge " + string(c)
	}
	return "confidence-badge"
}
