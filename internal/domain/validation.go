package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Validation errors
var (
	ErrInvalidNickname = errors.New("invalid nickname")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidIDFormat = errors.New("invalid ID format")
)

// Validation constants
const (
	MaxNicknameLength = 100
	MinNicknameLength = 1
	MaxEmailLength    = 254
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	ulidRegex  = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
)

// ValidateNickname validates an account nickname.
func ValidateNickname(nickname string) error {
	nickname = strings.TrimSpace(nickname)

	if len(nickname) < MinNicknameLength {
		return fmt.Errorf("%w: nickname cannot be empty", ErrInvalidNickname)
	}

	if len(nickname) > MaxNicknameLength {
		return fmt.Errorf("%w: nickname exceeds %d characters", ErrInvalidNickname, MaxNicknameLength)
	}

	if strings.ContainsAny(nickname, "<>\"`") {
		return fmt.Errorf("%w: contains forbidden characters", ErrInvalidNickname)
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if len(email) > MaxEmailLength || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateID checks that id looks like a ULID.
func ValidateID(id string) error {
	if !ulidRegex.MatchString(strings.ToUpper(id)) {
		return fmt.Errorf("%w: %q", ErrInvalidIDFormat, id)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// ValidateUserID checks that a browser session identifier is a UUID.
func ValidateUserID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return nil
}
