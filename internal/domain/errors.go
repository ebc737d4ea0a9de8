package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account with this email and nickname already exists")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidDate         = errors.New("transaction date is missing or invalid")
	ErrInvalidMonthKey     = errors.New("invalid month key")
	ErrNilTransaction      = errors.New("transaction is nil")

	// Upload errors
	ErrEmptyUpload    = errors.New("uploaded file is empty")
	ErrUploadTooLarge = errors.New("uploaded file exceeds size limit")
	ErrTooManyRows    = errors.New("uploaded file has too many rows")
	ErrBadStatement   = errors.New("uploaded file is not a readable statement")
	ErrInvalidUserID  = errors.New("user id must be a UUID")
)
