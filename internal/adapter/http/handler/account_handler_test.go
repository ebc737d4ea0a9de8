package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iho/txsummary/internal/adapter/http/dto"
	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/usecase"
)

type accountServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn    func(ctx context.Context, id string) (*domain.Account, error)
	listFn   func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return s.listFn(ctx, input)
}

// withURLParam routes the request through chi so URL params resolve.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAccountHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return &domain.Account{ID: "A1", Nickname: input.Nickname, Email: input.Email}, nil
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{Nickname: "Ana", Email: "ana@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/api/accounts/A1" {
		t.Fatalf("unexpected Location %q", loc)
	}
	if captured.Nickname != "Ana" || captured.Email != "ana@example.com" {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "A1" || resp.Nickname != "Ana" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "bad json", body: "{", status: http.StatusBadRequest},
		{name: "unknown field", body: `{"nickname":"Ana","email":"a@b.co","admin":true}`, status: http.StatusBadRequest},
		{name: "trailing object", body: `{"nickname":"Ana","email":"a@b.co"}{}`, status: http.StatusBadRequest},
		{name: "duplicate", body: `{"nickname":"Ana","email":"a@b.co"}`, err: fmt.Errorf("%w: a@b.co", domain.ErrAccountExists), status: http.StatusConflict},
		{name: "invalid email", body: `{"nickname":"Ana","email":"nope"}`, err: fmt.Errorf("validate: %w", domain.ErrInvalidEmail), status: http.StatusBadRequest},
		{name: "invalid nickname", body: `{"nickname":"","email":"a@b.co"}`, err: domain.ErrInvalidNickname, status: http.StatusBadRequest},
		{name: "storage failure", body: `{"nickname":"Ana","email":"a@b.co"}`, err: errors.New("db down"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAccountHandler(&accountServiceStub{
				createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
					return nil, tt.err
				},
			})

			rec := httptest.NewRecorder()
			handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(tt.body)))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "db down") {
				t.Fatalf("internal error details leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestAccountHandler_Get(t *testing.T) {
	const known = "01ARZ3NDEKTSV4RRFFQ69G5FAV"
	calls := 0
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Account, error) {
			calls++
			if id != known {
				return nil, domain.ErrAccountNotFound
			}
			return &domain.Account{ID: known, Nickname: "Ana"}, nil
		},
	})

	tests := []struct {
		id     string
		status int
	}{
		{id: known, status: http.StatusOK},
		{id: "01BX5ZZKBKACTAV9WEVGEMMVRZ", status: http.StatusNotFound},
		{id: "not-an-id", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/accounts/"+tt.id, nil), "id", tt.id))
		if rec.Code != tt.status {
			t.Fatalf("%s: expected %d, got %d", tt.id, tt.status, rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("malformed id should not reach the service, got %d calls", calls)
	}
}

func TestAccountHandler_List(t *testing.T) {
	var captured usecase.ListAccountsInput
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
			captured = input
			return []*domain.Account{
				{ID: "A1", Nickname: "Ana", Email: "ana@example.com"},
				{ID: "B2", Nickname: "Bo", Email: "bo@example.com"},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/accounts?limit=5&offset=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Limit != 5 || captured.Offset != 10 {
		t.Fatalf("expected pagination to be forwarded, got %+v", captured)
	}

	var resp []dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("expected a plain array: %v", err)
	}
	if len(resp) != 2 || resp[1].Email != "bo@example.com" {
		t.Fatalf("unexpected accounts %+v", resp)
	}
}
