// Package mqtt feeds device events published on an MQTT broker into a running
// engine and announces engine output back to the broker.
package mqtt

import (
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultTopic is the input topic prefix.
const DefaultTopic = "vaudio"

// waitTimeout bounds every broker round trip.
const waitTimeout = 10 * time.Second

// BrokerURL returns the broker URL from VAUDIO_MQTT_URL or the local default.
func BrokerURL() string {
	if url := os.Getenv("VAUDIO_MQTT_URL"); url != "" {
		return url
	}
	return "tcp://localhost:1883"
}

// Dial connects a client with automatic reconnection.
func Dial(broker, clientID string) (paho.Client, error) {
	if broker == "" {
		broker = BrokerURL()
	}
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(waitTimeout) {
		return nil, &TimeoutError{Op: "connect", Topic: broker}
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return client, nil
}

// TimeoutError reports a broker round trip that did not complete in time.
type TimeoutError struct {
	Op    string
	Topic string
}

func (e *TimeoutError) Error() string {
	return "mqtt " + e.Op + " timeout: " + e.Topic
}

// Subscriber is the part of paho.Client the input source needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

// Publisher is the part of paho.Client the announcer needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

func wait(t paho.Token, op, topic string) error {
	if !t.WaitTimeout(waitTimeout) {
		return &TimeoutError{Op: op, Topic: topic}
	}
	return t.Error()
}
