package domain

import (
	"encoding/json"
	"time"
)

// OutboxEvent is written in the same atomic batch as the state change it
// announces and published to Kafka later by the worker.
type OutboxEvent struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	Topic         string          `json:"topic"`
	CreatedAt     time.Time       `json:"created_at"`
	Attempts      int64           `json:"attempts"`
	LastError     *string         `json:"last_error,omitempty"`
}

// NewEnvelopeEvent wraps payload as {"event": eventType, "payload": payload}.
func NewEnvelopeEvent(topic, aggregateType, aggregateID, eventType string, payload any) (*OutboxEvent, error) {
	body, err := json.Marshal(map[string]any{
		"event":   eventType,
		"payload": payload,
	})
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
		Topic:         topic,
	}, nil
}
