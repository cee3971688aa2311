package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxDescriptionLength = 255
	MaxTransferAmount    = "9999999999999.99" // numeric(15,2) ceiling
	MinDepositAmount     = "1.00"
)

var ibanRegex = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{1,30}$`)

// ValidateAmount validates a money-movement amount: strictly positive, at
// most two fractional digits, within the storable range. Exact decimal
// arithmetic only; binary floating point never touches amounts.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Truncate(2)) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxTransferAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxTransferAmount)
	}

	return nil
}

// ValidateDepositAmount validates a deposit amount. Deposits additionally
// enforce the smallest depositable unit.
func ValidateDepositAmount(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	minAmount, _ := decimal.NewFromString(MinDepositAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum deposit is %s", ErrDepositBelowMinimum, MinDepositAmount)
	}

	return nil
}

// ValidateIBAN checks the shape of an IBAN-like identifier. Resolution
// against the account store is the authoritative existence check.
func ValidateIBAN(iban string) error {
	iban = strings.ToUpper(strings.ReplaceAll(iban, " ", ""))

	if !ibanRegex.MatchString(iban) {
		return fmt.Errorf("%w: malformed IBAN", ErrAccountNotFound)
	}

	return nil
}

// ValidateDescription bounds a free-text transaction description.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	}

	return nil
}

// ValidatePagination clamps pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const maxPageSize = 100
	const defaultPageSize = 20

	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
