package redis

import (
	"context"
	"testing"
)

func TestSequenceStore(t *testing.T) {
	client, _ := startRedis(t)

	store := NewSequenceStore(client)
	ctx := context.Background()

	cur, err := store.Current(ctx, "A1")
	if err != nil || cur != 0 {
		t.Fatalf("expected 0 for unknown account, got %d err=%v", cur, err)
	}

	for want := int64(1); want <= 3; want++ {
		got, err := store.Next(ctx, "A1")
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}

	cur, err = store.Current(ctx, "A1")
	if err != nil || cur != 3 {
		t.Fatalf("expected current 3, got %d err=%v", cur, err)
	}

	other, err := store.Next(ctx, "B2")
	if err != nil || other != 1 {
		t.Fatalf("expected independent counter, got %d err=%v", other, err)
	}
}
