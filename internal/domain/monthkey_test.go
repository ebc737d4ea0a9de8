package domain

import (
	"errors"
	"testing"
	"time"
)

func TestMonthKeyOf(t *testing.T) {
	got := MonthKeyOf(time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC))
	if got != "2024-03" {
		t.Fatalf("expected 2024-03, got %s", got)
	}
}

func TestParseMonthKey(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2024-01", false},
		{"1999-12", false},
		{"2024-1", true},
		{"2024-13", true},
		{"March 2024", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, err := ParseMonthKey(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMonthKey) {
					t.Fatalf("expected ErrInvalidMonthKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key.String() != tt.input {
				t.Fatalf("expected %s, got %s", tt.input, key)
			}
		})
	}
}

func TestSortMonthKeysDesc_AcrossYearBoundary(t *testing.T) {
	keys := []MonthKey{"2023-12", "2024-01", "2022-06", "2024-02"}
	SortMonthKeysDesc(keys)

	want := []MonthKey{"2024-02", "2024-01", "2023-12", "2022-06"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s (all: %v)", i, want[i], keys[i], keys)
		}
	}
}

func TestMonthKey_YearMonth(t *testing.T) {
	k := MonthKey("2023-07")
	if k.Year() != 2023 || k.Month() != time.July {
		t.Fatalf("unexpected year/month: %d %s", k.Year(), k.Month())
	}
}
