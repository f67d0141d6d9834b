package finance

import "github.com/google/uuid"

// RefKind names the kind of account a transaction moves money through.
type RefKind string

const (
	RefBank       RefKind = "bank"
	RefCash       RefKind = "cash"
	RefCreditCard RefKind = "credit_card"
)

// AccountRef is a tagged reference to a Bank, the singleton cash balance, or
// a CreditCard. ID is uuid.Nil for cash. The stores validate the reference
// against the account tables inside the same write transaction.
type AccountRef struct {
	Kind RefKind
	ID   uuid.UUID
}

// BankRef references a bank account.
func BankRef(id uuid.UUID) AccountRef { return AccountRef{Kind: RefBank, ID: id} }

// CashRef references the user's cash balance.
func CashRef() AccountRef { return AccountRef{Kind: RefCash} }

// CardRef references a credit card.
func CardRef(id uuid.UUID) AccountRef { return AccountRef{Kind: RefCreditCard, ID: id} }

// ValidForIncome reports whether the reference can receive income
// (banks and cash only; cards cannot be credited).
func (r AccountRef) ValidForIncome() bool {
	switch r.Kind {
	case RefBank:
		return r.ID != uuid.Nil
	case RefCash:
		return r.ID == uuid.Nil
	}
	return false
}

// ValidForExpense reports whether the reference can fund an expense.
func (r AccountRef) ValidForExpense() bool {
	switch r.Kind {
	case RefBank, RefCreditCard:
		return r.ID != uuid.Nil
	case RefCash:
		return r.ID == uuid.Nil
	}
	return false
}
