// Package mqtt owns the single long-lived broker session: topic routing for
// inbound messages, retained and plain publishes, and the viewer's last-will
// registration. Reconnection is left to the paho client (fixed 1s retry); no
// retry logic is layered on top.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/config"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/presence"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// HandlerFunc receives every message on a subscribed topic. Handlers must not
// panic; decode failures are theirs to log and swallow.
type HandlerFunc func(topic string, payload []byte)

type Session struct {
	client mqtt.Client
	cfg    config.Config
	logger *slog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once

	// handlers and connect hooks are registered before Connect; the session
	// re-subscribes and re-runs hooks on every reconnect.
	handlers  map[string]HandlerFunc
	onConnect []func()
}

func NewSession(cfg config.Config, logger *slog.Logger) *Session {
	s := &Session{
		cfg:      cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		handlers: make(map[string]HandlerFunc),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	// Random suffix so a stale session on the broker can't kick us off.
	opts.SetClientID(cfg.MQTTClientID + "-" + uuid.NewString()[:8])

	// Session settings
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(1 * time.Second)
	opts.SetMaxReconnectInterval(1 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// The broker publishes retained offline on our behalf if the connection
	// dies without a graceful shutdown.
	opts.SetWill(cfg.ViewerStatusTopic(), presence.TokenOffline, 0, true)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
		s.afterConnect()
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// Handle registers an inbound handler for a topic. Must be called before
// Connect so the subscription is in place before the broker flushes queued
// messages after CONNACK.
func (s *Session) Handle(topic string, h HandlerFunc) {
	s.handlers[topic] = h
}

// OnConnect registers a hook run after every successful connect or reconnect,
// once subscriptions are re-established.
func (s *Session) OnConnect(hook func()) {
	s.onConnect = append(s.onConnect, hook)
}

// Connect establishes the broker connection. It waits for the initial
// connection and respects ctx and Disconnect().
func (s *Session) Connect(ctx context.Context) error {
	// Fail fast if already stopped.
	select {
	case <-s.stopCh:
		return fmt.Errorf("session stopped")
	default:
	}

	// Fast path.
	if s.IsConnected() {
		return nil
	}

	// Start connect attempt. With ConnectRetry(true), it may keep retrying internally.
	token := s.client.Connect()

	// Wait in a ctx/stop-aware loop.
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			// OnConnectHandler sets connected=true and subscribes.
			return nil
		}

		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return fmt.Errorf("session stopped")
		default:
		}
	}
}

// afterConnect runs on paho's connect callback goroutine: re-subscribe every
// registered topic (clean sessions lose subscriptions on reconnect), then run
// the connect hooks.
func (s *Session) afterConnect() {
	qos := byte(0) // topics are an at-most-once contract

	for topic, h := range s.handlers {
		handler := h
		token := s.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
			handler(msg.Topic(), msg.Payload())
		})
		if !token.WaitTimeout(5 * time.Second) {
			s.logger.Error("subscribe timeout", "topic", topic)
			continue
		}
		if token.Error() != nil {
			s.logger.Error("subscribe failed", "topic", topic, "error", token.Error())
			continue
		}
		s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	}

	for _, hook := range s.onConnect {
		hook()
	}
}

// Publish sends a payload at QoS 0, optionally retained. Fire-and-forget by
// contract: the returned error is for user-facing notification only, never
// for retry logic.
func (s *Session) Publish(topic string, payload []byte, retained bool) error {
	if !s.IsConnected() {
		return fmt.Errorf("mqtt session not connected")
	}

	token := s.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if token.Error() != nil {
		s.logger.Error("publish failed", "topic", topic, "error", token.Error())
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}

	s.logger.Debug("published", "topic", topic, "retained", retained, "size", len(payload))
	return nil
}

// IsConnected returns whether the session is connected.
func (s *Session) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect stops the session and closes the broker connection.
// Idempotent and safe to call multiple times. The graceful retained offline
// is the presence manager's job and must happen before this.
func (s *Session) Disconnect() {
	// Signal shutdown once (unblocks any Connect loops).
	s.stopOnce.Do(func() { close(s.stopCh) })

	// Unsubscribe before disconnecting.
	if s.client != nil && s.IsConnected() {
		topics := make([]string, 0, len(s.handlers))
		for topic := range s.handlers {
			topics = append(topics, topic)
		}
		if len(topics) > 0 {
			token := s.client.Unsubscribe(topics...)
			token.WaitTimeout(2 * time.Second)
		}
	}

	// Disconnect without holding s.mu to avoid lock contention/deadlocks.
	if s.client != nil {
		s.client.Disconnect(250)
	}

	s.setConnected(false)
	s.logger.Info("mqtt session disconnected")
}

func (s *Session) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
