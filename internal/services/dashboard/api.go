package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/serosis/internal/model"
	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
	"github.com/LeonardoBeccarini/serosis/internal/model/messages"
)

// Domain is a pulled data domain. Each has its own endpoint, breaker and
// sequence fence.
type Domain string

const (
	DomainSensors     Domain = "sensors"
	DomainWeather     Domain = "weather"
	DomainFieldMap    Domain = "field-map"
	DomainFieldHealth Domain = "field-health"
	DomainYield       Domain = "yield"
	DomainHarvest     Domain = "harvest"
	DomainHistory     Domain = "history"
	DomainLanguage    Domain = "language"
)

var endpoints = map[Domain]string{
	DomainSensors:     "/api/sensors",
	DomainWeather:     "/api/weather",
	DomainFieldMap:    "/api/field-map",
	DomainFieldHealth: "/api/field-health",
	DomainYield:       "/api/predict-yield",
	DomainHarvest:     "/api/harvest-prediction",
	DomainHistory:     "/api/data",
	DomainLanguage:    "/api/change-language",
}

// ErrMissingPayload is returned when a prediction response lacks its body.
var ErrMissingPayload = errors.New("missing payload")

// Client talks to the dashboard backend, one Upstream per domain.
type Client struct {
	ups map[Domain]*Upstream
}

func NewClient(base string, timeout time.Duration, fails int, openFor, interval time.Duration) *Client {
	c := &Client{ups: make(map[Domain]*Upstream, len(endpoints))}
	// Un breaker per ciascun endpoint
	for d, path := range endpoints {
		name := string(d)
		c.ups[d] = NewUpstream(name, base, path, timeout, mkCB(name, fails, openFor, interval))
	}
	return c
}

// BreakerStates reports the breaker state of every domain.
func (c *Client) BreakerStates() map[Domain]gobreaker.State {
	out := make(map[Domain]gobreaker.State, len(c.ups))
	for d, u := range c.ups {
		out[d] = u.State()
	}
	return out
}

func (c *Client) Sensors(ctx context.Context) (model.SensorSnapshot, error) {
	var snap model.SensorSnapshot
	if err := c.ups[DomainSensors].GetJSON(ctx, &snap); err != nil {
		return nil, err
	}
	if snap == nil {
		snap = model.SensorSnapshot{}
	}
	return snap, nil
}

func (c *Client) Weather(ctx context.Context) (model.WeatherSnapshot, error) {
	var w model.WeatherSnapshot
	err := c.ups[DomainWeather].GetJSON(ctx, &w)
	return w, err
}

func (c *Client) FieldMap(ctx context.Context) (model.FieldMap, error) {
	var fm model.FieldMap
	err := c.ups[DomainFieldMap].GetJSON(ctx, &fm)
	return fm, err
}

func (c *Client) FieldHealth(ctx context.Context) (model.FieldHealth, error) {
	var h model.FieldHealth
	err := c.ups[DomainFieldHealth].GetJSON(ctx, &h)
	return h, err
}

func (c *Client) Yield(ctx context.Context) (entities.YieldPrediction, error) {
	var r entities.YieldResponse
	if err := c.ups[DomainYield].GetJSON(ctx, &r); err != nil {
		return entities.YieldPrediction{}, err
	}
	if r.Prediction == nil {
		return entities.YieldPrediction{}, fmt.Errorf("%s: %w", DomainYield, ErrMissingPayload)
	}
	return *r.Prediction, nil
}

func (c *Client) Harvest(ctx context.Context) (entities.HarvestPrediction, error) {
	var r entities.HarvestResponse
	if err := c.ups[DomainHarvest].GetJSON(ctx, &r); err != nil {
		return entities.HarvestPrediction{}, err
	}
	if r.HarvestPrediction == nil {
		return entities.HarvestPrediction{}, fmt.Errorf("%s: %w", DomainHarvest, ErrMissingPayload)
	}
	return *r.HarvestPrediction, nil
}

func (c *Client) History(ctx context.Context) (model.HistorySample, error) {
	var s model.HistorySample
	err := c.ups[DomainHistory].GetJSON(ctx, &s)
	return s, err
}

// ChangeLanguage asks the backend to switch the preference. A reply with
// a status other than success is an error.
func (c *Client) ChangeLanguage(ctx context.Context, code string) error {
	var resp messages.ChangeLanguageResponse
	if err := c.ups[DomainLanguage].PostJSON(ctx, messages.ChangeLanguageRequest{LanguageCode: code}, &resp); err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%s rejected %q: status %q %s", DomainLanguage, code, resp.Status, resp.Message)
	}
	return nil
}
