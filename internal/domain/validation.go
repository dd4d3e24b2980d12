package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
	ErrTooManyDecimals = errors.New("amount has more than two decimal places")
	ErrInvalidUser     = errors.New("invalid user")
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1024
	MaxUserLength        = 128
	MaxAmount            = "1000000000000" // 1 trillion
)

// ValidateName validates entity and bank names.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	return nil
}

// ValidateDescription bounds free-text entry descriptions. Empty is allowed.
func ValidateDescription(desc string) error {
	if len(desc) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidName, MaxDescriptionLength)
	}
	return nil
}

// ValidateUser validates the free-text actor recorded on entries.
func ValidateUser(user string) error {
	if len(user) > MaxUserLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidUser, MaxUserLength)
	}
	return nil
}

// ValidateAmount validates an obligation amount. Zero is accepted.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	maxAmount := decimal.RequireFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	if !amount.Equal(Round2(amount)) {
		return ErrTooManyDecimals
	}

	return nil
}

// ValidateBalance validates an opening or remote balance. Banks may be overdrawn.
func ValidateBalance(balance decimal.Decimal) error {
	maxAmount := decimal.RequireFromString(MaxAmount)
	if balance.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum balance is %s", ErrAmountTooLarge, MaxAmount)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
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

	return limit, offset, nil
}
