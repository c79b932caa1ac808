package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// offlineCapacity bounds the number of messages parked while disconnected.
// At one telemetry sample per second this is a bit over four minutes of
// broker outage.
const offlineCapacity = 256

// RealPublisher publishes to an actual MQTT broker. Messages that cannot be
// delivered while the broker is unreachable are queued and replayed on
// reconnect.
type RealPublisher struct {
	client paho.Client

	mu    sync.Mutex
	queue *offlineQueue

	commands chan Command
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := &RealPublisher{
		queue:    newOfflineQueue(offlineCapacity),
		commands: make(chan Command, 16),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// PublishTelemetry sends a telemetry sample to the broker.
// QoS 0 (at-most-once), not retained.
func (p *RealPublisher) PublishTelemetry(sample TelemetrySample) error {
	payload, err := FormatTelemetryPayload(sample)
	if err != nil {
		return fmt.Errorf("format telemetry payload: %w", err)
	}
	return p.publish(TopicTelemetry, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the broker.
// QoS 1 (at-least-once) — lifecycle events should survive flaky links.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.park(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.park(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		p.park(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *RealPublisher) park(msg queuedMsg) {
	p.mu.Lock()
	if p.queue.push(msg) {
		log.Printf("mqtt: offline queue full, dropped oldest message")
	}
	p.mu.Unlock()
}

// onConnect replays parked messages and (re)subscribes the control topic.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	msgs, dropped := p.queue.drain()
	p.mu.Unlock()

	if len(msgs) > 0 {
		log.Printf("mqtt: connected, replaying %d queued messages (%d dropped)", len(msgs), dropped)
	}
	for _, m := range msgs {
		token := client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) || token.Error() != nil {
			log.Printf("mqtt: replay to %s failed", m.topic)
		}
	}

	token := client.Subscribe(TopicControl, 1, p.onControlMessage)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("mqtt: control subscribe timeout")
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("mqtt: control subscribe: %v", err)
	}
}

func (p *RealPublisher) onControlMessage(_ paho.Client, msg paho.Message) {
	cmd, err := ParseCommand(msg.Payload())
	if err != nil {
		log.Printf("mqtt: ignoring control message: %v", err)
		return
	}

	select {
	case p.commands <- cmd:
	default:
		// The run loop is behind; dropping is safer than blocking the
		// paho router.
		log.Printf("mqtt: control queue full, dropping %q", cmd.Name)
	}
}

// Commands returns the channel of decoded control commands.
func (p *RealPublisher) Commands() <-chan Command {
	return p.commands
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
