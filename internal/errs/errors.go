package errs

import "errors"

// Common sentinel errors for cross-layer signaling. The HTTP boundary maps
// these to status codes and user-facing messages; callers branch with
// errors.Is rather than string matching.
var (
	ErrNotFound     = errors.New("not_found")
	ErrExists       = errors.New("already_exists")
	ErrInvalid      = errors.New("invalid")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInsufficientBankBalance rejects an expense that would overdraw a bank.
	ErrInsufficientBankBalance = errors.New("insufficient_bank_balance")
	// ErrInsufficientCashBalance rejects an expense that would overdraw cash.
	ErrInsufficientCashBalance = errors.New("insufficient_cash_balance")
	// ErrInsufficientCreditLimit rejects a card expense past the remaining limit.
	ErrInsufficientCreditLimit = errors.New("insufficient_credit_limit")
	// ErrAccountReferenced blocks deleting an account that transactions still reference.
	ErrAccountReferenced = errors.New("account_referenced")
	// ErrLimitBelowUsed blocks lowering a credit limit under the current used limit.
	ErrLimitBelowUsed = errors.New("credit_limit_below_used")
)

// invalidError carries a human-readable reason while still matching
// ErrInvalid under errors.Is.
type invalidError struct{ msg string }

func (e *invalidError) Error() string { return e.msg }
func (e *invalidError) Unwrap() error { return ErrInvalid }

// Invalid returns a validation error with a user-facing message.
func Invalid(msg string) error { return &invalidError{msg: msg} }
