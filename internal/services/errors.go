package services

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExhausted is returned by Debit when the balance is zero or less.
	ErrQuotaExhausted = errors.New("credit quota exhausted")
	// ErrStorageUnavailable wraps every ledger storage failure. The
	// transaction it happened in never commits.
	ErrStorageUnavailable = errors.New("ledger storage unavailable")
	// ErrLedgerNotInitialized means the process started without a ledger store.
	ErrLedgerNotInitialized = errors.New("ledger not initialized")
	ErrInvalidAmount        = errors.New("credit amount must be positive")
	ErrUnknownProduct       = errors.New("unknown product")
	ErrInvalidPurchase      = errors.New("invalid purchase")
	// ErrUpstreamGeneration covers transport and provider failures of the
	// generation call, including timeouts.
	ErrUpstreamGeneration = errors.New("upstream generation failed")
	// ErrMalformedOutput means the generator answered but no JSON array of
	// recommendations could be extracted from the text.
	ErrMalformedOutput = errors.New("malformed generation output")
)

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
