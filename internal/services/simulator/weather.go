package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/serosis/internal/model"
	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
)

// WeatherSource provides the /api/weather payload.
type WeatherSource interface {
	Current(ctx context.Context) (model.WeatherSnapshot, error)
}

type owmResp struct {
	Current struct {
		Temp    float64 `json:"temp"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"current"`
	Daily []struct {
		Rain float64 `json:"rain"`
	} `json:"daily"`
	Alerts []struct {
		Event string `json:"event"`
	} `json:"alerts"`
}

// OWMClient legge il meteo corrente da OpenWeather One Call.
type OWMClient struct {
	apiKey   string
	lat, lon float64
	baseURL  string
	client   *http.Client
}

func NewOWMClient(key string, lat, lon float64) *OWMClient {
	return &OWMClient{
		apiKey:  key,
		lat:     lat,
		lon:     lon,
		baseURL: "https://api.openweathermap.org/data/3.0/onecall",
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *OWMClient) Current(ctx context.Context) (model.WeatherSnapshot, error) {
	if c.apiKey == "" {
		return model.WeatherSnapshot{}, fmt.Errorf("missing api key")
	}
	url := fmt.Sprintf("%s?lat=%f&lon=%f&exclude=minutely,hourly&units=metric&appid=%s", c.baseURL, c.lat, c.lon, c.apiKey)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := c.client.Do(req)
	if err != nil {
		return model.WeatherSnapshot{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return model.WeatherSnapshot{}, fmt.Errorf("owm status %d: %s", resp.StatusCode, string(b))
	}
	var out owmResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.WeatherSnapshot{}, err
	}

	cur := &entities.CurrentWeather{Temperature: math.Round(out.Current.Temp*10) / 10}
	if len(out.Current.Weather) > 0 {
		w := out.Current.Weather[0]
		cur.Description = describe(w.Main, w.Description)
		cur.Icon = iconFor(w.Main)
	}
	snap := model.WeatherSnapshot{Current: cur, Alerts: []string{}}
	for _, a := range out.Alerts {
		snap.Alerts = append(snap.Alerts, a.Event)
	}
	// pioggia prevista domani oltre 10mm
	if len(out.Daily) > 1 && out.Daily[1].Rain > 10 {
		snap.Alerts = append(snap.Alerts, "Heavy rain expected tomorrow")
	}
	return snap, nil
}

func describe(main, desc string) string {
	if strings.EqualFold(main, "Clouds") && (strings.Contains(desc, "few") || strings.Contains(desc, "scattered")) {
		return "Partly Cloudy"
	}
	if desc == "" {
		return main
	}
	return strings.ToUpper(desc[:1]) + desc[1:]
}

func iconFor(main string) string {
	switch strings.ToLower(main) {
	case "clear":
		return "☀️"
	case "clouds":
		return "⛅"
	case "rain", "drizzle":
		return "🌧️"
	case "thunderstorm":
		return "⛈️"
	case "snow":
		return "❄️"
	}
	return ""
}

// SyntheticWeather is used when no OpenWeather key is configured.
type SyntheticWeather struct {
	field *Field
}

func NewSyntheticWeather(f *Field) *SyntheticWeather { return &SyntheticWeather{field: f} }

func (s *SyntheticWeather) Current(_ context.Context) (model.WeatherSnapshot, error) {
	now := time.Now().UTC()
	t := s.field.temperature(now, 0)
	snap := model.WeatherSnapshot{
		Current: &entities.CurrentWeather{Temperature: t, Description: "Partly Cloudy"},
		Alerts:  []string{},
	}
	// un giorno su tre annuncia pioggia
	if now.YearDay()%3 == 0 {
		snap.Alerts = append(snap.Alerts, "Heavy rain expected tomorrow")
	}
	return snap, nil
}
