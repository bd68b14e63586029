package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the qualitative state the backend assigns to a single reading.
type Status string

const (
	StatusOptimal Status = "OPTIMAL"
	StatusGood    Status = "GOOD"
	StatusLow     Status = "LOW"
	StatusHigh    Status = "HIGH"
	StatusCold    Status = "COLD"
	StatusHot     Status = "HOT"
	StatusDanger  Status = "DANGER"
	StatusUnknown Status = "UNKNOWN"
)

// ParseStatus normalizes raw backend text; anything unrecognized is UNKNOWN.
func ParseStatus(raw string) Status {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusOptimal, StatusGood, StatusLow, StatusHigh, StatusCold, StatusHot, StatusDanger:
		return s
	default:
		return StatusUnknown
	}
}

// Location is the sensor position on the field grid.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SensorRecord is one entry of a sensor snapshot.
type SensorRecord struct {
	Name           string    `json:"name"`
	Battery        int       `json:"battery"`
	Location       Location  `json:"location"`
	LastUpdate     time.Time `json:"last_update"`
	Moisture       int       `json:"moisture"`
	MoistureStatus Status    `json:"moisture_status"`
	Temperature    float64   `json:"temperature"`
	TempStatus     Status    `json:"temp_status"`
	Humidity       int       `json:"humidity"`
	HumidityStatus Status    `json:"humidity_status"`
}

// UnmarshalJSON è permissivo: campi mancanti o di tipo sbagliato diventano
// valori di default, gli status sconosciuti diventano UNKNOWN. Una voce che
// non è un oggetto diventa un record di default.
func (r *SensorRecord) UnmarshalJSON(b []byte) error {
	m, err := objectFrom(b)
	if err != nil {
		return err
	}
	*r = SensorRecord{
		Name:           stringFrom(m, "name"),
		Battery:        clampPercent(intFrom(m, "battery")),
		LastUpdate:     timeFrom(m, "last_update", "timestamp"),
		Moisture:       intFrom(m, "moisture"),
		MoistureStatus: ParseStatus(stringFrom(m, "moisture_status")),
		Temperature:    floatFrom(m, "temperature"),
		TempStatus:     ParseStatus(stringFrom(m, "temp_status")),
		Humidity:       intFrom(m, "humidity"),
		HumidityStatus: ParseStatus(stringFrom(m, "humidity_status")),
	}
	if loc, ok := m["location"].(map[string]any); ok {
		r.Location = Location{X: floatFrom(loc, "x"), Y: floatFrom(loc, "y")}
	}
	return nil
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// SensorEntry pairs a sensor id with its record.
type SensorEntry struct {
	ID     string
	Record SensorRecord
}

// DisplayName returns the record name, or the id when the name is empty.
func (e SensorEntry) DisplayName() string {
	if strings.TrimSpace(e.Record.Name) != "" {
		return e.Record.Name
	}
	return e.ID
}

// SensorSnapshot is the full sensor state keyed by id. It keeps the key
// order of the JSON object it was decoded from.
type SensorSnapshot []SensorEntry

// Get looks up a sensor by id.
func (s SensorSnapshot) Get(id string) (SensorRecord, bool) {
	for _, e := range s {
		if e.ID == id {
			return e.Record, true
		}
	}
	return SensorRecord{}, false
}

func (s *SensorSnapshot) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = SensorSnapshot{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("sensor snapshot: expected object, got %v", tok)
	}

	out := SensorSnapshot{}
	index := map[string]int{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := kt.(string)
		if !ok {
			return fmt.Errorf("sensor snapshot: unexpected key %v", kt)
		}
		var rec SensorRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("sensor snapshot: entry %q: %w", id, err)
		}
		// chiave duplicata: vince l'ultimo valore, resta la prima posizione
		if i, dup := index[id]; dup {
			out[i].Record = rec
			continue
		}
		index[id] = len(out)
		out = append(out, SensorEntry{ID: id, Record: rec})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

func (s SensorSnapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Record)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
