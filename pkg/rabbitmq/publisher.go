package rabbitmq

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// IPublisher interface defines the method to publish a message
type IPublisher interface {
	PublishMessage(message interface{}) error
	Close()
}

// Publisher holds the client, topic, and exchange for publishing messages
type Publisher struct {
	client   mqtt.Client
	topic    string
	exchange string
	qos      byte
}

// NewPublisher creates a new Publisher instance using the shared MQTT client and topic
func NewPublisher(client mqtt.Client, topic string, exchange string) *Publisher {
	return &Publisher{
		client:   client,
		topic:    topic,
		exchange: exchange,
		qos:      qosFor(topic),
	}
}

// PublishMessage publishes a string, a byte slice, or any value encoded as JSON.
func (p *Publisher) PublishMessage(message interface{}) error {
	var payload []byte
	switch m := message.(type) {
	case string:
		payload = []byte(m)
	case []byte:
		payload = m
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("invalid message format: %w", err)
		}
		payload = b
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %w", token.Error())
	}

	logrus.WithFields(logrus.Fields{"component": "mqtt-publisher", "topic": p.topic}).
		Debugf("published %d bytes", len(payload))
	return nil
}

// Close gracefully closes the MQTT connection for the publisher
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		logrus.WithField("component", "mqtt-publisher").Info("MQTT client disconnected")
	}
}
