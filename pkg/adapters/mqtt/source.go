package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/input"
	"github.com/aretw0/vaudio/pkg/ports"
)

// inboxSize is the backlog of broker messages awaiting the controller.
const inboxSize = 64

// Envelope is the payload accepted on the bare input topic.
type Envelope struct {
	Device string          `json:"device"`
	Event  json.RawMessage `json:"event"`
}

// Source is an InputSource reading the topic tree under Topic:
//
//	<topic>/input/<device>  raw device event JSON
//	<topic>/input           Envelope
//	<topic>/signal          "1".."4", pressed into the resolver
//	<topic>/command         a command key, dispatched immediately
type Source struct {
	Client Subscriber
	Topic  string
	QoS    byte

	logger *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		s.logger = l
	}
}

// WithTopic sets the topic prefix.
func WithTopic(topic string) Option {
	return func(s *Source) {
		s.Topic = strings.TrimSuffix(topic, "/")
	}
}

// NewSource creates a source subscribed through client.
func NewSource(client Subscriber, opts ...Option) *Source {
	s := &Source{
		Client: client,
		Topic:  DefaultTopic,
		QoS:    1,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) filters() []string {
	return []string{s.Topic + "/input", s.Topic + "/input/+", s.Topic + "/signal", s.Topic + "/command"}
}

// Run subscribes and forwards messages to c until ctx is done or the engine stops.
func (s *Source) Run(ctx context.Context, c ports.Controller) error {
	inbox := make(chan paho.Message, inboxSize)
	handler := func(_ paho.Client, msg paho.Message) {
		select {
		case inbox <- msg:
		default:
			s.logger.Warn("mqtt inbox full, dropping message", "topic", msg.Topic())
		}
	}

	filters := s.filters()
	for _, f := range filters {
		if err := wait(s.Client.Subscribe(f, s.QoS, handler), "subscribe", f); err != nil {
			return fmt.Errorf("mqtt subscribe %s: %w", f, err)
		}
	}
	defer func() {
		if err := wait(s.Client.Unsubscribe(filters...), "unsubscribe", s.Topic); err != nil {
			s.logger.Warn("mqtt unsubscribe failed", "error", err)
		}
	}()
	s.logger.Info("mqtt input subscribed", "topic", s.Topic)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-inbox:
			err := s.Handle(ctx, c, msg.Topic(), msg.Payload())
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrResolverStopped):
				return nil
			default:
				s.logger.Warn("mqtt message rejected", "topic", msg.Topic(), "error", err)
			}
		}
	}
}

// Handle routes one message by topic.
func (s *Source) Handle(ctx context.Context, c ports.Controller, topic string, payload []byte) error {
	rest, ok := strings.CutPrefix(topic, s.Topic+"/")
	if !ok {
		return fmt.Errorf("topic %q outside %q", topic, s.Topic)
	}

	switch {
	case rest == "signal":
		sig, err := domain.ParseSignal(string(payload))
		if err != nil {
			return err
		}
		return c.Press(sig, domain.SourceMQTT)
	case rest == "command":
		key, err := domain.ParseCommandKey(string(payload))
		if err != nil {
			return err
		}
		return c.Force(key)
	case rest == "input":
		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return fmt.Errorf("decode envelope: %w", err)
		}
		if env.Device == "" {
			return fmt.Errorf("%w: empty device", input.ErrUnknownDevice)
		}
		_, err := c.Input(ctx, env.Device, env.Event)
		return err
	case strings.HasPrefix(rest, "input/"):
		_, err := c.Input(ctx, strings.TrimPrefix(rest, "input/"), payload)
		return err
	}
	return fmt.Errorf("unsupported topic %q", topic)
}
