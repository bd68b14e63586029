package dashboard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LeonardoBeccarini/serosis/internal/i18n"
	"github.com/LeonardoBeccarini/serosis/pkg/rabbitmq"
)

// View is the page the session starts on.
type View string

const (
	ViewDashboard View = "dashboard"
	ViewAnalytics View = "analytics"
)

const (
	PushWebsocket = "ws"
	PushMQTT      = "mqtt"
)

const (
	DefaultSensorInterval    = 5 * time.Second
	DefaultWeatherInterval   = 30 * time.Minute
	DefaultAnalyticsInterval = 30 * time.Second
	DefaultHistoryInterval   = 5 * time.Second
	DefaultReconnectDelay    = 3000 * time.Millisecond
	DefaultHTTPTimeout       = 3000 * time.Millisecond
)

type Config struct {
	BaseURL  string
	Language string
	View     View

	HTTPTimeout time.Duration

	ReconnectDelay  time.Duration
	ReconnectPolicy string // constant | exponential

	BreakerFailures int
	BreakerOpenFor  time.Duration
	BreakerInterval time.Duration

	PushTransport string // ws | mqtt
	Broker        rabbitmq.RabbitMQConfig
	PushTopic     string

	SensorInterval    time.Duration
	WeatherInterval   time.Duration
	AnalyticsInterval time.Duration
	HistoryInterval   time.Duration
	NotificationTTL   time.Duration

	// opzionali
	Archive      HistoryArchive
	Registerer   prometheus.Registerer
	Translations i18n.Table
}

func (c *Config) withDefaults() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Language == "" {
		c.Language = i18n.Default
	}
	if c.View == "" {
		c.View = ViewDashboard
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.ReconnectPolicy == "" {
		c.ReconnectPolicy = PolicyConstant
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerOpenFor <= 0 {
		c.BreakerOpenFor = 10 * time.Second
	}
	if c.BreakerInterval <= 0 {
		c.BreakerInterval = 60 * time.Second
	}
	if c.PushTransport == "" {
		c.PushTransport = PushWebsocket
	}
	if c.PushTopic == "" {
		c.PushTopic = "dashboard/updates"
	}
	if c.SensorInterval <= 0 {
		c.SensorInterval = DefaultSensorInterval
	}
	if c.WeatherInterval <= 0 {
		c.WeatherInterval = DefaultWeatherInterval
	}
	if c.AnalyticsInterval <= 0 {
		c.AnalyticsInterval = DefaultAnalyticsInterval
	}
	if c.HistoryInterval <= 0 {
		c.HistoryInterval = DefaultHistoryInterval
	}
}

func (c Config) validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base url is required"))
	} else if _, err := WebsocketURL(c.BaseURL); err != nil {
		errs = append(errs, err)
	}
	switch c.View {
	case ViewDashboard, ViewAnalytics:
	default:
		errs = append(errs, fmt.Errorf("unknown view %q", c.View))
	}
	switch c.PushTransport {
	case PushWebsocket:
	case PushMQTT:
		if c.Broker.Host == "" {
			errs = append(errs, errors.New("mqtt push needs a broker host"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown push transport %q", c.PushTransport))
	}
	switch c.ReconnectPolicy {
	case PolicyConstant, PolicyExponential:
	default:
		errs = append(errs, fmt.Errorf("unknown reconnect policy %q", c.ReconnectPolicy))
	}
	return errors.Join(errs...)
}
