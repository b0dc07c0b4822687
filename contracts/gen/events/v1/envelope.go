package v1

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the envelope version written by current producers.
const SchemaVersion = 1

// Envelope wraps every royalty and fee event on the bus and in the outbox.
// Fields only get added; consumers ignore what they do not know.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// New encodes payload as the envelope data. partitionKeyPath names the
// payload field that partitionKey was taken from, e.g. "track_id".
func New(
	eventID string,
	eventType string,
	source string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	payload any,
) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    source,
		TraceID:          eventID,
		SchemaVersion:    SchemaVersion,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             data,
	}, nil
}

// Decode unmarshals the envelope data into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s event %s has no data", e.EventType, e.EventID)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s event %s: %w", e.EventType, e.EventID, err)
	}
	return nil
}
