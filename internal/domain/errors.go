package domain

import "errors"

var (
	// Registry errors
	ErrEntityNotFound = errors.New("entity not found")
	ErrBankNotFound   = errors.New("bank not found")
	ErrInvalidName    = errors.New("invalid name")

	// Ledger errors
	ErrEntryNotFound      = errors.New("entry not found")
	ErrInvalidAmount      = errors.New("amount must not be negative")
	ErrInvalidEntryType   = errors.New("invalid entry type")
	ErrSyntheticEntryType = errors.New("bank entries are only created by settlement")
	ErrEntryAlreadyPaid   = errors.New("entry is already paid")
)
