package backend

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// commandTopicPrefix is the MQTT topic prefix for mirrored voice commands.
// Full topic: graylogic/voice/command/{item}
const commandTopicPrefix = "graylogic/voice/command/"

// itemStateMeasurement is the time-series measurement for mirrored reads.
const itemStateMeasurement = "item_state"

// Publisher is the subset of the MQTT client used for command mirroring.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// PointWriter is the subset of the InfluxDB client used for state mirroring.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]interface{})
}

// Logger is the logging interface used by Mirror.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Mirror wraps a Backend and copies successful traffic to the MQTT bus and
// the time-series store. Mirroring never changes the result of a call.
type Mirror struct {
	next      Backend
	publisher Publisher
	points    PointWriter
	qos       byte
	topic     func(item string) string
	logger    Logger
	now       func() time.Time
}

// MirrorOptions configures a Mirror. Publisher and Points may be nil.
type MirrorOptions struct {
	Publisher Publisher
	Points    PointWriter
	QoS       byte
	Logger    Logger

	// Topic names the command topic of an item. Defaults to
	// graylogic/voice/command/{item}.
	Topic func(item string) string
}

// NewMirror decorates next with command and state mirroring.
func NewMirror(next Backend, opts MirrorOptions) *Mirror {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	topic := opts.Topic
	if topic == nil {
		topic = func(item string) string { return commandTopicPrefix + item }
	}
	return &Mirror{
		next:      next,
		publisher: opts.Publisher,
		points:    opts.Points,
		qos:       opts.QoS,
		topic:     topic,
		logger:    logger,
		now:       time.Now,
	}
}

// GetItem implements StateReader and records the state read.
func (m *Mirror) GetItem(ctx context.Context, token, name string) (*Item, error) {
	item, err := m.next.GetItem(ctx, token, name)
	if err != nil {
		return nil, err
	}
	if m.points != nil {
		m.points.WritePoint(itemStateMeasurement, map[string]string{
			"item": item.Name,
			"type": item.BaseType(),
		}, stateFields(item.State))
	}
	return item, nil
}

// SendCommand implements CommandSender and publishes the command on success.
func (m *Mirror) SendCommand(ctx context.Context, token, name, value string) error {
	if err := m.next.SendCommand(ctx, token, name, value); err != nil {
		return err
	}
	if m.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"item":      name,
		"value":     value,
		"source":    "voice",
		"timestamp": m.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		m.logger.Warn("failed to encode mirrored command", "item", name, "error", err)
		return nil
	}

	topic := m.topic(name)
	if pubErr := m.publisher.Publish(topic, payload, m.qos, false); pubErr != nil {
		m.logger.Warn("failed to mirror command", "topic", topic, "error", pubErr)
		return nil
	}
	m.logger.Debug("command mirrored", "topic", topic)
	return nil
}

// stateFields returns the point fields for a state string. Numeric states
// also get a float field so they can be graphed.
func stateFields(state string) map[string]interface{} {
	fields := map[string]interface{}{"state": state}
	if v, err := strconv.ParseFloat(state, 64); err == nil {
		fields["value"] = v
	}
	return fields
}
