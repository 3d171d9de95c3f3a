package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// DefaultTopic is the base topic; messages go to <base>/<key>.
const DefaultTopic = "salah/reminders"

// Publisher is the part of mqtt.Client used here.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes messages as JSON.
type MQTT struct {
	client  Publisher
	topic   string
	timeout time.Duration
}

// NewMQTT publishes through client under topic (DefaultTopic when empty).
func NewMQTT(client Publisher, topic string) *MQTT {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTT{client: client, topic: strings.TrimSuffix(topic, "/"), timeout: 10 * time.Second}
}

// DialMQTT connects to broker (e.g. "tcp://localhost:1883").
func DialMQTT(broker, clientID, topic string) (*MQTT, mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", broker).Msg("[notify] connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", broker).Msg("[notify] MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, token.Error())
	}
	return NewMQTT(client, topic), client, nil
}

// Topic returns the topic a message is published to.
func (m *MQTT) Topic(msg Message) string {
	key := strings.NewReplacer(":", "/", " ", "_").Replace(msg.Key)
	if key == "" {
		return m.topic
	}
	return m.topic + "/" + key
}

// Notify publishes msg as JSON on the topic for its key.
func (m *MQTT) Notify(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	token := m.client.Publish(m.Topic(msg), 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.timeout):
		return fmt.Errorf("publishing to %s: timed out", m.Topic(msg))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", m.Topic(msg), err)
	}
	return nil
}
