package domain

import "time"

// Outbox event names. Consumers key on these, so they never change once shipped.
const (
	EventTypeAccountCreated       = "account.created"
	EventTypeTransactionsImported = "transactions.imported"
)

// AggregateTypeAccount is the only aggregate that emits events; every event is
// partitioned by account ID.
const AggregateTypeAccount = "account"

// OutboxEvent is a pending notification written in the same database
// transaction as the change it describes.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewAccountEvent builds an unpublished event about accountID.
func NewAccountEvent(id, accountID, eventType string, payload map[string]any, at time.Time) *OutboxEvent {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["account_id"] = accountID

	return &OutboxEvent{
		ID:            id,
		AggregateID:   accountID,
		AggregateType: AggregateTypeAccount,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	}
}
