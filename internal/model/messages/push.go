package messages

import (
	"encoding/json"
	"fmt"

	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
)

// MessageType is the discriminator of a push message.
type MessageType string

const (
	TypeSensorUpdate    MessageType = "sensor_update"
	TypeLanguageChanged MessageType = "language_changed"
)

// Push is a decoded push message.
type Push interface {
	Type() MessageType
}

// SensorUpdate carries a full sensor snapshot.
type SensorUpdate struct {
	Sensors entities.SensorSnapshot `json:"sensors"`
}

func (SensorUpdate) Type() MessageType { return TypeSensorUpdate }

// LanguageChanged is broadcast when the preference changes server side.
type LanguageChanged struct {
	Language string `json:"language"`
}

func (LanguageChanged) Type() MessageType { return TypeLanguageChanged }

type envelope struct {
	Type     MessageType     `json:"type"`
	Sensors  json.RawMessage `json:"sensors,omitempty"`
	Language string          `json:"language,omitempty"`
}

// Decode parses a push message. Unknown types return (nil, nil) so newer
// servers can add variants without breaking older clients.
func Decode(b []byte) (Push, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("push decode: %w", err)
	}
	switch env.Type {
	case TypeSensorUpdate:
		var snap entities.SensorSnapshot
		if len(env.Sensors) > 0 {
			if err := json.Unmarshal(env.Sensors, &snap); err != nil {
				return nil, fmt.Errorf("push decode %s: %w", env.Type, err)
			}
		}
		if snap == nil {
			snap = entities.SensorSnapshot{}
		}
		return &SensorUpdate{Sensors: snap}, nil
	case TypeLanguageChanged:
		if env.Language == "" {
			return nil, fmt.Errorf("push decode %s: missing language", env.Type)
		}
		return &LanguageChanged{Language: env.Language}, nil
	default:
		return nil, nil
	}
}

// Encode serializes a push message with its discriminator.
func Encode(p Push) ([]byte, error) {
	switch m := p.(type) {
	case *SensorUpdate:
		raw, err := json.Marshal(m.Sensors)
		if err != nil {
			return nil, err
		}
		return json.Marshal(envelope{Type: TypeSensorUpdate, Sensors: raw})
	case *LanguageChanged:
		return json.Marshal(envelope{Type: TypeLanguageChanged, Language: m.Language})
	default:
		return nil, fmt.Errorf("push encode: unsupported message %T", p)
	}
}
