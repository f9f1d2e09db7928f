package eventservice

import (
	"time"
)

type BaseEvent struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	OccurredAt    time.Time         `json:"occurred_at"`
	Version       string            `json:"version"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Source        string            `json:"source,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
}

// StorageEvent announces a blob written to one of the pipeline buckets.
// The raw and processed variants share this shape; the routing key says
// which stage produced it.
type StorageEvent struct {
	BaseEvent
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}
