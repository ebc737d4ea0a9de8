package domain

import (
	"strings"
	"time"
)

// Account is the owner of a set of transactions and the recipient of summary emails.
type Account struct {
	ID        string
	Nickname  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount builds an account with normalized fields and matching timestamps.
func NewAccount(id, nickname, email string, now time.Time) *Account {
	return &Account{
		ID:        id,
		Nickname:  strings.TrimSpace(nickname),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks nickname and email.
func (a *Account) Validate() error {
	if err := ValidateNickname(a.Nickname); err != nil {
		return err
	}
	return ValidateEmail(a.Email)
}
