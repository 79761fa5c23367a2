package eventsRepo

import (
	"context"
	"time"
)

// ProviderEvent is one webhook delivery as received. The unique
// (provider, event_id) index is what makes at-least-once delivery safe.
type ProviderEvent struct {
	ID           string     `bson:"id"`
	Provider     string     `bson:"provider"`
	EventID      string     `bson:"event_id"`
	EventType    string     `bson:"event_type"`
	Payload      []byte     `bson:"payload"`
	ReceivedAt   time.Time  `bson:"received_at"`
	ProcessedAt  *time.Time `bson:"processed_at,omitempty"`
	ProcessError string     `bson:"process_error,omitempty"`
}

// EventRepository persists webhook deliveries for dedupe and audit.
type EventRepository interface {
	// Insert stores a new delivery. Returns isNew=false (and no error) when
	// the same (provider, event_id) was already recorded.
	Insert(ctx context.Context, event *ProviderEvent) (isNew bool, err error)
	MarkProcessed(ctx context.Context, id string) error
	MarkError(ctx context.Context, id, message string) error
}
