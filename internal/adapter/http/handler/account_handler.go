package handler

import (
	"context"
	"net/http"

	"github.com/iho/txsummary/internal/adapter/http/dto"
	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/usecase"
)

const defaultAccountPage = 100

// AccountService is the account use case as seen by the HTTP layer.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

// AccountHandler serves /api/accounts.
type AccountHandler struct {
	accounts AccountService
}

func NewAccountHandler(accounts AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Create handles POST /api/accounts and answers 201 with a Location header.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body dto.CreateAccountRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	acc, err := h.accounts.CreateAccount(r.Context(), body.ToUseCaseInput())
	if err != nil {
		respondError(w, r, err, "failed to create account")
		return
	}

	w.Header().Set("Location", "/api/accounts/"+acc.ID)
	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(acc))
}

// Get handles GET /api/accounts/{id}. Malformed IDs are rejected before
// touching storage.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(w, r)
	if !ok {
		return
	}

	acc, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "failed to get account")
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountFromDomain(acc))
}

// List handles GET /api/accounts?limit=&offset= and returns a bare array.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	in := usecase.ListAccountsInput{
		Limit:  parseIntQuery(r, "limit", defaultAccountPage),
		Offset: parseIntQuery(r, "offset", 0),
	}
	accs, err := h.accounts.ListAccounts(r.Context(), in)
	if err != nil {
		respondError(w, r, err, "failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accs))
}
