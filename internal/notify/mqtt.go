package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"posebvh/internal/config"
)

const publishTimeout = 2 * time.Second

var connectTimeout = 5 * time.Second

var ErrNotConnected = errors.New("mqtt not connected")

// MQTT publishes export events to a broker. The underlying client is safe for
// concurrent use and reconnects on its own.
type MQTT struct {
	cfg    config.MQTTConfig
	client mqtt.Client
}

var _ Notifier = (*MQTT)(nil)

// New returns an MQTT notifier when a broker is configured and Nop otherwise.
func New(cfg config.MQTTConfig) (Notifier, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return Nop{}, nil
	}
	return NewMQTT(cfg)
}

// NewMQTT connects to the broker. When the broker does not answer within the
// connect timeout the notifier is still returned: the client keeps retrying in
// the background and Publish reports ErrNotConnected until it is up.
func NewMQTT(cfg config.MQTTConfig) (*MQTT, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	broker := brokerURL(cfg.Broker)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		slog.Info("mqtt connection established",
			"broker", broker,
			"client_id", cfg.ClientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		slog.Warn("mqtt connection lost, will auto-reconnect",
			"error", err,
			"broker", broker)
	}

	client := mqtt.NewClient(opts)
	slog.Info("connecting to mqtt broker", "broker", broker)

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		slog.Warn("mqtt broker not reachable yet, retrying in background",
			"broker", broker,
			"timeout", connectTimeout)
		return &MQTT{cfg: cfg, client: client}, nil
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	return &MQTT{cfg: cfg, client: client}, nil
}

func (m *MQTT) Publish(ctx context.Context, event Event) error {
	if !m.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling export event: %w", err)
	}

	token := m.client.Publish(m.cfg.Topic, m.cfg.QoS, false, payload)
	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("publish timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	slog.Debug("export event published",
		"topic", m.cfg.Topic,
		"qos", m.cfg.QoS,
		"size", len(payload),
	)
	return nil
}

// Close disconnects and stops any pending connection retries.
func (m *MQTT) Close() {
	if m.client == nil {
		return
	}
	m.client.Disconnect(250)
	slog.Info("mqtt disconnected")
}

// brokerURL accepts host:port and defaults the scheme to tcp.
func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}
