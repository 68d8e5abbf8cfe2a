package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// maxPayloadSize caps a single message at 1 MB.
const maxPayloadSize = 1 << 20

// Envelope wraps every published domain event.
type Envelope struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// Publish sends a raw payload to topic.
//
// QoS 0 is fire and forget, 1 is at least once, 2 is exactly once.
// Retained messages are stored by the broker for new subscribers; use them
// for status topics, never for events.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := validatePublish(topic, payload, qos); err != nil {
		return err
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishEvent wraps data in an Envelope and publishes it, not retained,
// at the configured QoS on the event's topic.
func (c *Client) PublishEvent(name string, data any) error {
	topic, payload, err := encodeEvent(c.topics, name, data, time.Now().UTC())
	if err != nil {
		return err
	}
	return c.Publish(topic, payload, byte(c.cfg.QoS), false)
}

// encodeEvent builds the topic and JSON body for an event.
func encodeEvent(topics Topics, name string, data any, at time.Time) (string, []byte, error) {
	if name == "" {
		return "", nil, ErrInvalidEvent
	}

	payload, err := json.Marshal(Envelope{Event: name, OccurredAt: at, Data: data})
	if err != nil {
		return "", nil, fmt.Errorf("%w: encoding %s: %w", ErrPublishFailed, name, err)
	}
	return topics.Event(name), payload, nil
}

func validatePublish(topic string, payload []byte, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	return nil
}
