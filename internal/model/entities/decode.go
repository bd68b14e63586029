package entities

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// numberFrom accetta numeri, stringhe numeriche e bool (true=1) come fa il gateway.
func numberFrom(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f, true
		}
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// objectFrom decodes b as a JSON object. Any other JSON value gives an
// empty object, so every field falls back to its default.
func objectFrom(b []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{}, nil
}

func intFrom(m map[string]any, key string) int {
	if f, ok := numberFrom(m[key]); ok {
		return int(math.Round(f))
	}
	return 0
}

func floatFrom(m map[string]any, key string) float64 {
	if f, ok := numberFrom(m[key]); ok {
		return f
	}
	return 0
}

// stringsFrom keeps the string items of an array, skipping the rest.
func stringsFrom(m map[string]any, key string) []string {
	items, _ := m[key].([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringFrom(m map[string]any, key string) string {
	switch x := m[key].(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"}

// ParseTime accepts RFC3339 and the two naive layouts the backend emits.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// timeFrom parses RFC3339 strings or unix epoch milliseconds.
func timeFrom(m map[string]any, keys ...string) time.Time {
	for _, k := range keys {
		switch x := m[k].(type) {
		case string:
			if t, ok := ParseTime(x); ok {
				return t
			}
		case float64:
			if x > 0 {
				return time.UnixMilli(int64(x))
			}
		}
	}
	return time.Time{}
}

func scalarFrom(m map[string]any, key string) Scalar { return Scalar(stringFrom(m, key)) }

// Scalar is the display text of any JSON scalar. Used for prediction fields
// the backend sends either as numbers or as preformatted strings.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = Scalar(x)
	case float64:
		*s = Scalar(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*s = Scalar(strconv.FormatBool(x))
	default:
		*s = Scalar(strings.TrimSpace(string(b)))
	}
	return nil
}

func (s Scalar) String() string { return string(s) }
