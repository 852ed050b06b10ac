// Package kafka carries the asynchronous deal pipeline: enrichment
// requests fan out to the worker, completion and score events fan back
// to interested consumers.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/reubenai/dealsense/pkg/errors"
)

const (
	TopicEnrichmentRequested = "deal.enrichment.requested"
	TopicEnrichmentCompleted = "deal.enrichment.completed"
	TopicScoreUpdated        = "deal.score.updated"
	TopicMemoGenerated       = "deal.memo.generated"
	TopicDeadLetter          = "dead_letter.deals"
)

// EventEnvelope is the wire format shared by every topic.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// EnrichmentRequestedPayload asks the worker to run enrichment packs
// for a deal.
type EnrichmentRequestedPayload struct {
	DealID       string    `json:"deal_id"`
	FundID       string    `json:"fund_id"`
	Packs        []string  `json:"enrichment_packs,omitempty"`
	ForceRefresh bool      `json:"force_refresh,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
}

// EnrichmentCompletedPayload reports the outcome of an enrichment run,
// including which packs degraded instead of failing.
type EnrichmentCompletedPayload struct {
	DealID        string    `json:"deal_id"`
	DegradedPacks []string  `json:"degraded_packs,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// ScoreUpdatedPayload announces a fresh composite score for a deal.
type ScoreUpdatedPayload struct {
	DealID       string    `json:"deal_id"`
	OverallScore float64   `json:"overall_score"`
	RAGStatus    string    `json:"rag_status"`
	ScoredAt     time.Time `json:"scored_at"`
}

// MemoGeneratedPayload announces a new IC memo draft.
type MemoGeneratedPayload struct {
	DealID      string    `json:"deal_id"`
	MemoID      string    `json:"memo_id"`
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewEventEnvelope wraps payload in a versioned envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return appErrors.New(appErrors.ErrCodeValidation, "event payload is empty")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}

// Encode serializes the envelope for the wire.
func (e *EventEnvelope) Encode() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to marshal event envelope")
	}
	return raw, nil
}

// DecodeEnvelope parses a raw message back into an envelope.
func DecodeEnvelope(raw []byte) (*EventEnvelope, error) {
	if len(raw) == 0 {
		return nil, appErrors.New(appErrors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to unmarshal event envelope")
	}
	return &env, nil
}
