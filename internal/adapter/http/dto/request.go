package dto

import (
	"github.com/iho/txsummary/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Nickname: r.Nickname,
		Email:    r.Email,
	}
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ClientMessage is a message sent by a websocket client.
type ClientMessage struct {
	Type      string `json:"type"`
	AccountID string `json:"account_id"`
}

// Client message types.
const (
	ClientMessageSubscribe   = "subscribe"
	ClientMessageUnsubscribe = "unsubscribe"
)
