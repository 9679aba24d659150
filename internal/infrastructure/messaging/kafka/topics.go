package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// TopicRunCompleted receives one event per finished pipeline run.
const TopicRunCompleted = "molnet.run.completed"

// Event types
const (
	EventRunCompleted = "run.completed"
	EventRunFailed    = "run.failed"
)

const (
	eventSource   = "molnetenhancer"
	schemaVersion = "1.0"
)

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// RunCompletedPayload summarizes one pipeline run.
type RunCompletedPayload struct {
	RunID        string            `json:"run_id"`
	Command      string            `json:"command"`
	Nodes        int               `json:"nodes"`
	Edges        int               `json:"edges"`
	Families     int               `json:"families"`
	Singletons   int               `json:"singletons"`
	Motifs       int               `json:"motifs,omitempty"`
	Classified   int               `json:"classified,omitempty"`
	Unclassified int               `json:"unclassified,omitempty"`
	LookupFailed int               `json:"lookup_failed,omitempty"`
	Outputs      map[string]string `json:"outputs,omitempty"`
	Error        string            `json:"error,omitempty"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
}

// NewEventEnvelope wraps payload in an envelope with a fresh event id.
func NewEventEnvelope(eventType string, payload interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        eventSource,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       raw,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}

// ToMessage encodes the envelope as a message for topic keyed by key.
func (e *EventEnvelope) ToMessage(topic, key string) (Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return Message{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event envelope")
	}
	return Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: map[string]string{
			"event_type":     e.EventType,
			"schema_version": e.SchemaVersion,
		},
		Time: e.Timestamp,
	}, nil
}

// RunPublisher publishes run summaries to a fixed topic.
type RunPublisher struct {
	producer *Producer
	topic    string
}

// NewRunPublisher publishes to topic, or TopicRunCompleted when empty.
func NewRunPublisher(p *Producer, topic string) *RunPublisher {
	if topic == "" {
		topic = TopicRunCompleted
	}
	return &RunPublisher{producer: p, topic: topic}
}

// PublishRun publishes a run summary keyed by its run id.
func (r *RunPublisher) PublishRun(ctx context.Context, payload RunCompletedPayload) error {
	eventType := EventRunCompleted
	if payload.Error != "" {
		eventType = EventRunFailed
	}
	env, err := NewEventEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(r.topic, payload.RunID)
	if err != nil {
		return err
	}
	return r.producer.Publish(ctx, msg)
}

// Close closes the underlying producer.
func (r *RunPublisher) Close() error {
	return r.producer.Close()
}
