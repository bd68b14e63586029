package rabbitmq

import (
	"context"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// IConsumer interface defines the ConsumeMessage method with dependencies T
type IConsumer[T any] interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler func(queue string, message mqtt.Message) error)
}

// Consumer holds the client and topic for subscribing to a topic
type Consumer struct {
	client  mqtt.Client
	handler func(queue string, message mqtt.Message) error
	topic   string
	log     *logrus.Entry
}

var _ IConsumer[[]byte] = (*Consumer)(nil)

// NewConsumer creates a new Consumer instance using the shared MQTT client and topic
func NewConsumer(client mqtt.Client, topic string, handler func(queue string, message mqtt.Message) error) *Consumer {
	return &Consumer{
		client:  client,
		topic:   topic,
		handler: handler,
		log:     logrus.WithFields(logrus.Fields{"component": "mqtt-consumer", "topic": topic}),
	}
}

func (c *Consumer) SetHandler(handler func(queue string, message mqtt.Message) error) {
	c.handler = handler
}

// SetClient swaps the client; used when the client is created after the
// consumer because its OnConnect handler must resubscribe.
func (c *Consumer) SetClient(client mqtt.Client) {
	c.client = client
}

func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "dashboard/") {
		return 1
	}
	return 0
}

// Subscribe registers the handler on the topic. With a clean session the
// broker forgets subscriptions on reconnect, so callers invoke it from the
// OnConnect handler too.
func (c *Consumer) Subscribe(client mqtt.Client) error {
	if client == nil {
		client = c.client
	}
	token := client.Subscribe(c.topic, qosFor(c.topic), func(_ mqtt.Client, message mqtt.Message) {
		if c.handler == nil {
			c.log.Warn("no handler set")
			return
		}
		if err := c.handler(c.topic, message); err != nil {
			c.log.WithError(err).Error("error handling message")
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, token.Error())
	}
	c.log.Info("successfully subscribed")
	return nil
}

// ConsumeMessage subscribes to the topic and processes messages using the handler
// It blocks until the context is cancelled.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	if err := c.Subscribe(nil); err != nil {
		c.log.WithError(err).Error("subscription failed")
		return
	}

	<-ctx.Done()

	// Unsubscribe when exiting to clean up
	if c.client.IsConnectionOpen() {
		c.client.Unsubscribe(c.topic).Wait()
	}
}
