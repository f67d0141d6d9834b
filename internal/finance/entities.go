package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrackingOption selects which side of the books a user records and whether
// expense writes validate and mutate account balances.
type TrackingOption string

const (
	// TrackingIncome records income only.
	TrackingIncome TrackingOption = "income"
	// TrackingExpenses records expenses only; expense writes skip both
	// balance validation and balance mutation for these users.
	TrackingExpenses TrackingOption = "expenses"
	// TrackingBoth records income and expenses with full balance upkeep.
	TrackingBoth TrackingOption = "both"
)

// Valid reports whether t is one of the known tracking options.
func (t TrackingOption) Valid() bool {
	switch t {
	case TrackingIncome, TrackingExpenses, TrackingBoth:
		return true
	}
	return false
}

// AppliesExpenseBalances reports whether expense writes for this option
// validate and mutate the referenced account's balance.
func (t TrackingOption) AppliesExpenseBalances() bool {
	return t != TrackingExpenses
}

// IncludesCreditCards reports whether credit cards appear in summaries.
func (t TrackingOption) IncludesCreditCards() bool {
	return t == TrackingExpenses || t == TrackingBoth
}

// User captures the owner of all financial data. Every store query is keyed
// by the user's ID; there is no cross-user visibility.
type User struct {
	ID                 uuid.UUID
	Email              string
	PasswordHash       string
	SecurityQuestion   string
	SecurityAnswerHash string
	Tracking           TrackingOption
	CreatedAt          time.Time
}

// Bank is a per-user bank account. CurrentBalance is a running total kept in
// sync by transaction writes; InitialBalance only moves via an explicit edit,
// which shifts CurrentBalance by the same delta.
type Bank struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	InitialBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
}

// CreditCard tracks a card's limit and the running total charged to it.
type CreditCard struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	CreditLimit decimal.Decimal
	UsedLimit   decimal.Decimal
	CreatedAt   time.Time
}

// CashBalance is the singleton cash record for a user. The first write sets
// Balance and InitialBalance equal; later writes update only Balance.
type CashBalance struct {
	UserID         uuid.UUID
	Balance        decimal.Decimal
	InitialBalance decimal.Decimal
	UpdatedAt      time.Time
}

// IncomeEntry records money credited to a bank or to cash.
type IncomeEntry struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Source     string
	Amount     decimal.Decimal
	CreditedTo AccountRef
	Date       time.Time
}

// Expense records money debited from a bank or cash, or charged to a card.
type Expense struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Title    string
	Amount   decimal.Decimal
	PaidWith AccountRef
	Date     time.Time
}
