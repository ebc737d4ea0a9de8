package postgres

import (
	"testing"
	"time"

	"github.com/iho/txsummary/internal/domain"
)

func TestULIDGeneratorMonotonic(t *testing.T) {
	g := NewULIDGenerator()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	prev := ""
	for i := 0; i < 1000; i++ {
		id := g.Generate()
		if err := domain.ValidateID(id); err != nil {
			t.Fatalf("generated invalid id %q: %v", id, err)
		}
		if id <= prev {
			t.Fatalf("ids not increasing: %s after %s", id, prev)
		}
		prev = id
	}
}
