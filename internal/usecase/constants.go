package usecase

import "time"

// Limits shared by the write paths.
const (
	WriteTxTimeout        = 10 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	MaxImportRows         = 100_000
)
