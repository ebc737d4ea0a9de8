package domain

import (
	"testing"
	"time"
)

func TestNewAccountEvent(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	e := NewAccountEvent("evt-1", "acc-1", EventTypeTransactionsImported, map[string]any{"imported": 3}, at)

	if e.AggregateID != "acc-1" || e.AggregateType != AggregateTypeAccount {
		t.Fatalf("unexpected aggregate: %s/%s", e.AggregateType, e.AggregateID)
	}
	if e.Payload["account_id"] != "acc-1" || e.Payload["imported"] != 3 {
		t.Fatalf("unexpected payload: %v", e.Payload)
	}
	if e.Published || e.PublishedAt != nil || !e.CreatedAt.Equal(at) {
		t.Fatalf("expected a fresh unpublished event, got %+v", e)
	}

	empty := NewAccountEvent("evt-2", "acc-2", EventTypeAccountCreated, nil, at)
	if len(empty.Payload) != 1 || empty.Payload["account_id"] != "acc-2" {
		t.Fatalf("expected payload with account_id only, got %v", empty.Payload)
	}
}
