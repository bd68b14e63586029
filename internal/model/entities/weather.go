package entities

// CurrentWeather is the "current" block of /api/weather.
type CurrentWeather struct {
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

func currentWeatherFrom(m map[string]any) CurrentWeather {
	return CurrentWeather{
		Temperature: floatFrom(m, "temperature"),
		Description: stringFrom(m, "description"),
		Icon:        stringFrom(m, "icon"),
	}
}

func (c *CurrentWeather) UnmarshalJSON(b []byte) error {
	m, err := objectFrom(b)
	if err != nil {
		return err
	}
	*c = currentWeatherFrom(m)
	return nil
}

// WeatherSnapshot is the payload of /api/weather.
type WeatherSnapshot struct {
	Current *CurrentWeather `json:"current"`
	Alerts  []string        `json:"alerts"`
}

// UnmarshalJSON leaves Current nil unless "current" is an object and
// keeps only the string alerts.
func (w *WeatherSnapshot) UnmarshalJSON(b []byte) error {
	m, err := objectFrom(b)
	if err != nil {
		return err
	}
	*w = WeatherSnapshot{Alerts: stringsFrom(m, "alerts")}
	if cur, ok := m["current"].(map[string]any); ok {
		c := currentWeatherFrom(cur)
		w.Current = &c
	}
	return nil
}

// FirstAlert returns the only alert the dashboard surfaces.
func (w WeatherSnapshot) FirstAlert() (string, bool) {
	if len(w.Alerts) == 0 {
		return "", false
	}
	return w.Alerts[0], true
}
