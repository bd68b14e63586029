package dashboard

import (
	"context"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/serosis/pkg/dedup"
	"github.com/LeonardoBeccarini/serosis/pkg/metrics"
	"github.com/LeonardoBeccarini/serosis/pkg/rabbitmq"
)

// MQTTChannel receives the same push envelopes from a broker topic. paho
// reconnects on its own at a fixed interval; QoS1 redeliveries are dropped
// by payload hash.
type MQTTChannel struct {
	cfg       rabbitmq.RabbitMQConfig
	topic     string
	h         ChannelHandlers
	dedup     *dedup.Deduper
	m         *metrics.Metrics
	log       *logrus.Entry
	connects  atomic.Int32
	connected atomic.Bool
}

func NewMQTTChannel(cfg rabbitmq.RabbitMQConfig, topic string, delay time.Duration, h ChannelHandlers, m *metrics.Metrics) *MQTTChannel {
	cfg.ReconnectInterval = delay
	cfg.MaxConnectRetries = 0
	return &MQTTChannel{
		cfg:   cfg,
		topic: topic,
		h:     h,
		dedup: dedup.New(30*time.Second, 1000),
		m:     m,
		log:   logrus.WithFields(logrus.Fields{"component": "mqtt-channel", "topic": topic}),
	}
}

func (c *MQTTChannel) Connected() bool { return c.connected.Load() }

// Run connects, subscribes and blocks until ctx is done.
func (c *MQTTChannel) Run(ctx context.Context) error {
	consumer := rabbitmq.NewConsumer(nil, c.topic, c.handle)
	cfg := c.brokerConfig(consumer)

	client, err := rabbitmq.NewRabbitMQConn(&cfg, ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	consumer.SetClient(client)
	consumer.ConsumeMessage(ctx)
	<-ctx.Done()
	c.setConnected(false)
	return nil
}

// brokerConfig hooks the channel callbacks into the paho connection
// lifecycle.
func (c *MQTTChannel) brokerConfig(consumer *rabbitmq.Consumer) rabbitmq.RabbitMQConfig {
	cfg := c.cfg
	cfg.OnConnect = func(cl mqtt.Client) {
		// clean session: dopo una riconnessione la subscription va rifatta
		if c.connects.Add(1) > 1 {
			if err := consumer.Subscribe(cl); err != nil {
				c.log.WithError(err).Error("resubscribe failed")
			}
		}
		c.setConnected(true)
		if c.h.OnOpen != nil {
			c.h.OnOpen()
		}
	}
	cfg.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.setConnected(false)
		if c.m != nil {
			c.m.Reconnects.Inc()
		}
		c.log.WithField("event", "reconnect").WithError(err).Info("push channel lost, paho reconnecting")
		if c.h.OnClose != nil {
			c.h.OnClose(err)
		}
	}
	return cfg
}

func (c *MQTTChannel) handle(_ string, msg mqtt.Message) error {
	if !c.dedup.ShouldProcessPayload(msg.Payload()) {
		c.log.WithField("event", "duplicate").Debug("dropping redelivered payload")
		return nil
	}
	if c.h.OnMessage != nil {
		c.h.OnMessage(msg.Payload())
	}
	return nil
}

func (c *MQTTChannel) setConnected(up bool) {
	c.connected.Store(up)
	if c.m != nil {
		c.m.SetConnected(up)
	}
}
