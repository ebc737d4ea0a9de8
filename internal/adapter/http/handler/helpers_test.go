package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/txsummary/internal/adapter/http/dto"
	"github.com/iho/txsummary/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{query: "limit=50", want: 50},
		{query: "limit=-3", want: -3},
		{query: "limit=fifty", want: 10},
		{query: "offset=4", want: 10},
		{query: "", want: 10},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/accounts?"+tt.query, nil)
		if got := parseIntQuery(req, "limit", 10); got != tt.want {
			t.Fatalf("%q: expected %d, got %d", tt.query, tt.want, got)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "ok", body: `{"name":"x"}`},
		{name: "unknown field", body: `{"name":"x","extra":1}`, wantErr: true},
		{name: "two objects", body: `{"name":"x"} {"name":"y"}`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
		{name: "oversized", body: `{"name":"` + strings.Repeat("a", maxJSONBody) + `"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst payload
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := decodeJSON(rec, req, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && dst.Name != "x" {
				t.Fatalf("unexpected payload %+v", dst)
			}
		})
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrAccountNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", domain.ErrAccountNotFound), http.StatusNotFound},
		{domain.ErrTransactionNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: a@b.co", domain.ErrAccountExists), http.StatusConflict},
		{domain.ErrInvalidEmail, http.StatusBadRequest},
		{domain.ErrInvalidNickname, http.StatusBadRequest},
		{domain.ErrInvalidIDFormat, http.StatusBadRequest},
		{domain.ErrInvalidUserID, http.StatusBadRequest},
		{domain.ErrInvalidMonthKey, http.StatusBadRequest},
		{domain.ErrEmptyUpload, http.StatusBadRequest},
		{domain.ErrBadStatement, http.StatusBadRequest},
		{domain.ErrUploadTooLarge, http.StatusRequestEntityTooLarge},
		{domain.ErrTooManyRows, http.StatusRequestEntityTooLarge},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := mapDomainError(tt.err); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(rec, req, errors.New("pq: password authentication failed"), "failed to load")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "failed to load" || resp.Message != "" {
		t.Fatalf("unexpected body %+v", resp)
	}

	rec = httptest.NewRecorder()
	respondError(rec, req, domain.ErrInvalidMonthKey, "bad month")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid month key") {
		t.Fatalf("client errors should carry their message, got %d %s", rec.Code, rec.Body.String())
	}
}
