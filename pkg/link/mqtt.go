package link

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/eclipse/paho.golang/paho/session/state"
	"github.com/google/uuid"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/protocol"
)

const (
	mqttKeepAlive     = 60
	mqttSessionExpiry = 60
	publishTimeout    = 5 * time.Second
)

// MQTT is a broker-based transport. The rover subscribes to
// {prefix}/{robotID}/control and publishes status to
// {prefix}/{robotID}/status.
type MQTT struct {
	broker  string
	robotID string
	prefix  string
	handler Handler

	cm *autopaho.ConnectionManager
}

// NewMQTT creates an MQTT transport for the given broker URL
// (e.g. mqtt://broker:1883).
func NewMQTT(broker, prefix, robotID string, handler Handler) *MQTT {
	return &MQTT{
		broker:  broker,
		robotID: robotID,
		prefix:  prefix,
		handler: handler,
	}
}

func (m *MQTT) controlTopic() string {
	return fmt.Sprintf("%s/%s/control", m.prefix, m.robotID)
}

func (m *MQTT) statusTopic() string {
	return fmt.Sprintf("%s/%s/status", m.prefix, m.robotID)
}

// Run connects to the broker and serves until the context is cancelled.
// autopaho handles reconnection and re-subscription.
func (m *MQTT) Run(ctx context.Context) error {
	serverURL, err := url.Parse(m.broker)
	if err != nil {
		return fmt.Errorf("failed to parse broker URL: %w", err)
	}

	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{serverURL},
		KeepAlive:                     mqttKeepAlive,
		CleanStartOnInitialConnection: false,
		SessionExpiryInterval:         mqttSessionExpiry,
		ReconnectBackoff:              autopaho.NewConstantBackoff(5 * time.Second),
		OnConnectionUp:                m.onConnectionUp,
		OnConnectError: func(err error) {
			log.Warn("mqtt connect error", "broker", m.broker, "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: fmt.Sprintf("%s-%s", m.robotID, uuid.NewString()[:8]),
			Session:  state.NewInMemory(),
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				m.onPublishReceived,
			},
			OnClientError: func(err error) {
				log.Warn("mqtt client error", "error", err)
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				log.Warn("mqtt server disconnect", "reason_code", d.ReasonCode)
			},
		},
	}

	cm, err := autopaho.NewConnection(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create mqtt connection: %w", err)
	}
	m.cm = cm

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_ = cm.Disconnect(shutdownCtx)

	return ctx.Err()
}

func (m *MQTT) onConnectionUp(cm *autopaho.ConnectionManager, _ *paho.Connack) {
	log.Info("connected to mqtt broker", "broker", m.broker, "topic", m.controlTopic())
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if _, err := cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: m.controlTopic(), QoS: 1},
		},
	}); err != nil {
		log.Error("mqtt subscribe failed", "topic", m.controlTopic(), "error", err)
	}
}

func (m *MQTT) onPublishReceived(pr paho.PublishReceived) (bool, error) {
	msg, err := protocol.ParseMessage(pr.Packet.Payload)
	if err != nil {
		log.Warn("dropping unparseable mqtt message", "topic", pr.Packet.Topic, "error", err)
		return true, nil
	}
	m.handler(msg)
	return true, nil
}

// Send publishes a message to the status topic.
func (m *MQTT) Send(msg *protocol.Message) error {
	if m.cm == nil {
		return errors.New("mqtt transport not running")
	}
	data, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_, err = m.cm.Publish(ctx, &paho.Publish{
		Topic:   m.statusTopic(),
		QoS:     0,
		Payload: data,
	})
	return err
}

var _ Transport = (*MQTT)(nil)
