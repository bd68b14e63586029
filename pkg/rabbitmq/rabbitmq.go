package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string
	Exchange string
	Kind     string // Exchange type (topic, fanout, etc.)

	// ReconnectInterval is the fixed delay between automatic reconnections
	// after the connection is lost. Zero leaves paho's default.
	ReconnectInterval time.Duration
	// MaxConnectRetries bounds the initial connection attempts; 0 retries forever.
	MaxConnectRetries int

	OnConnect        func(mqtt.Client)
	OnConnectionLost func(mqtt.Client, error)
}

// Addr returns the broker URL.
func (c *RabbitMQConfig) Addr() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}

func clientOptions(cfg *RabbitMQConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Addr())
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	if cfg.ReconnectInterval > 0 {
		// paho non attende mai più di ReconnectInterval tra due tentativi
		opts.SetConnectRetryInterval(cfg.ReconnectInterval)
		opts.SetMaxReconnectInterval(cfg.ReconnectInterval)
	}
	if cfg.OnConnect != nil {
		opts.SetOnConnectHandler(cfg.OnConnect)
	}
	if cfg.OnConnectionLost != nil {
		opts.SetConnectionLostHandler(cfg.OnConnectionLost)
	}
	return opts
}

func connectBackOff(cfg *RabbitMQConfig, ctx context.Context) backoff.BackOff {
	var bo backoff.BackOff
	if cfg.ReconnectInterval > 0 {
		bo = backoff.NewConstantBackOff(cfg.ReconnectInterval)
	} else {
		// Exponential backoff per le retry in caso di fail
		eb := backoff.NewExponentialBackOff()
		eb.MaxElapsedTime = 10 * time.Second
		bo = eb
	}
	if cfg.MaxConnectRetries > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(cfg.MaxConnectRetries-1))
	}
	return backoff.WithContext(bo, ctx)
}

// NewRabbitMQConn connects to the broker, retrying according to cfg, and
// disconnects when ctx is done.
func NewRabbitMQConn(cfg *RabbitMQConfig, ctx context.Context) (mqtt.Client, error) {
	log := logrus.WithFields(logrus.Fields{"component": "mqtt", "broker": cfg.Addr()})
	opts := clientOptions(cfg)

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).Warn("failed to connect to MQTT broker")
			return token.Error()
		}
		return nil
	}, connectBackOff(cfg, ctx))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	log.Info("connected to MQTT broker")

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		log.Info("MQTT connection is closed")
	}()

	return client, nil
}

func CloseRabbitMQConn(client mqtt.Client) {
	if client.IsConnected() {
		client.Disconnect(250)
		logrus.WithField("component", "mqtt").Info("MQTT connection successfully closed")
	}
}
