package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/serosis/internal/services/dashboard"
	"github.com/LeonardoBeccarini/serosis/pkg/rabbitmq"
)

type Config struct {
	Dashboard dashboard.Config

	LogLevel       string
	HTTPPort       int
	RenderInterval time.Duration

	// Archivio storico (opzionale)
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

const defaultRenderInterval = 5 * time.Second

func loadConfig() Config {
	cfg := Config{
		Dashboard: dashboard.Config{
			BaseURL:         getenv("DASHBOARD_BASE_URL", "http://localhost:5000"),
			Language:        getenv("DASHBOARD_LANGUAGE", "en"),
			View:            dashboard.View(getenv("DASHBOARD_VIEW", string(dashboard.ViewDashboard))),
			HTTPTimeout:     ms(getenvInt("TIMEOUT_MS", 3000)),
			ReconnectDelay:  ms(getenvInt("RECONNECT_DELAY_MS", 3000)),
			ReconnectPolicy: getenv("RECONNECT_POLICY", dashboard.PolicyConstant),
			BreakerFailures: getenvInt("CB_FAILS", 5),
			BreakerOpenFor:  ms(getenvInt("CB_OPEN_MS", 10000)),
			BreakerInterval: ms(getenvInt("CB_INTERVAL_MS", 60000)),
			PushTransport:   getenv("PUSH_TRANSPORT", dashboard.PushWebsocket),
			Broker: rabbitmq.RabbitMQConfig{
				Host:     getenv("RABBITMQ_HOST", "localhost"),
				Port:     getenvInt("RABBITMQ_PORT", 1883),
				User:     getenv("RABBITMQ_USER", "guest"),
				Password: getenv("RABBITMQ_PASSWORD", "guest"),
				ClientID: getenv("HOSTNAME", "serosis-dashboard"),
				Exchange: "dashboard",
				Kind:     "topic",
			},
			PushTopic: getenv("PUSH_TOPIC", "dashboard/updates"),
		},
		LogLevel:       getenv("LOG_LEVEL", "info"),
		HTTPPort:       getenvInt("HTTP_PORT", 9100),
		RenderInterval: ms(getenvInt("RENDER_INTERVAL_MS", int(defaultRenderInterval/time.Millisecond))),

		InfluxURL:    getenv("INFLUX_URL", ""),
		InfluxToken:  getenv("INFLUX_TOKEN", ""),
		InfluxOrg:    getenv("INFLUX_ORG", "serosis"),
		InfluxBucket: getenv("INFLUX_BUCKET", "dashboard"),
	}
	// time.NewTicker va in panic con intervalli non positivi
	if cfg.RenderInterval <= 0 {
		cfg.RenderInterval = defaultRenderInterval
	}
	return cfg
}
