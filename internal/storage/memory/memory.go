// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing us
// to plug in a real DB later. A single mutex serializes writes, so each
// balance mutation (log row + account row) is atomic the same way the
// Postgres store's transactions are.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/finance"
)

// Store is an in-memory implementation of every repository and writer
// interface used by the services.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]finance.User
	banks    map[uuid.UUID]finance.Bank
	cards    map[uuid.UUID]finance.CreditCard
	cash     map[uuid.UUID]finance.CashBalance
	income   map[uuid.UUID]finance.IncomeEntry
	expenses map[uuid.UUID]finance.Expense
	now      func() time.Time
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]finance.User),
		banks:    make(map[uuid.UUID]finance.Bank),
		cards:    make(map[uuid.UUID]finance.CreditCard),
		cash:     make(map[uuid.UUID]finance.CashBalance),
		income:   make(map[uuid.UUID]finance.IncomeEntry),
		expenses: make(map[uuid.UUID]finance.Expense),
		now:      time.Now,
	}
}

// Ready always succeeds for the in-memory backend.
func (s *Store) Ready(context.Context) error { return nil }

// Seed helpers for local dev/tests.
func (s *Store) SeedUser(u finance.User)  { s.mu.Lock(); s.users[u.ID] = u; s.mu.Unlock() }
func (s *Store) SeedBank(b finance.Bank)  { s.mu.Lock(); s.banks[b.ID] = b; s.mu.Unlock() }
func (s *Store) SeedCard(c finance.CreditCard) { s.mu.Lock(); s.cards[c.ID] = c; s.mu.Unlock() }

// --- Users ---

func (s *Store) User(_ context.Context, userID uuid.UUID) (finance.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return finance.User{}, errs.ErrNotFound
	}
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (finance.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return finance.User{}, errs.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, u finance.User) (finance.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if strings.EqualFold(other.Email, u.Email) {
			return finance.User{}, errs.ErrExists
		}
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u finance.User) (finance.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return finance.User{}, errs.ErrNotFound
	}
	s.users[u.ID] = u
	return u, nil
}

// --- Banks ---

func (s *Store) ListBanks(_ context.Context, userID uuid.UUID) ([]finance.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]finance.Bank, 0)
	for _, b := range s.banks {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Bank(_ context.Context, userID, bankID uuid.UUID) (finance.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bankLocked(userID, bankID)
}

func (s *Store) bankLocked(userID, bankID uuid.UUID) (finance.Bank, error) {
	b, ok := s.banks[bankID]
	if !ok || b.UserID != userID {
		return finance.Bank{}, errs.ErrNotFound
	}
	return b, nil
}

func (s *Store) CreateBank(_ context.Context, b finance.Bank) (finance.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.banks {
		if other.UserID == b.UserID && other.Name == b.Name {
			return finance.Bank{}, errs.ErrExists
		}
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}
	s.banks[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBank(_ context.Context, userID, bankID uuid.UUID, name string, initial decimal.Decimal) (finance.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.bankLocked(userID, bankID)
	if err != nil {
		return finance.Bank{}, err
	}
	for _, other := range s.banks {
		if other.ID != bankID && other.UserID == userID && other.Name == name {
			return finance.Bank{}, errs.ErrExists
		}
	}
	// Shifting current_balance by the initial delta keeps historical
	// transaction sums consistent with the edit.
	b.CurrentBalance = b.CurrentBalance.Add(initial.Sub(b.InitialBalance))
	b.InitialBalance = initial
	b.Name = name
	s.banks[bankID] = b
	return b, nil
}

func (s *Store) DeleteBank(_ context.Context, userID, bankID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.bankLocked(userID, bankID); err != nil {
		return err
	}
	if s.refCountLocked(userID, finance.BankRef(bankID)) > 0 {
		return errs.ErrAccountReferenced
	}
	delete(s.banks, bankID)
	return nil
}

// --- Credit cards ---

func (s *Store) ListCards(_ context.Context, userID uuid.UUID) ([]finance.CreditCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]finance.CreditCard, 0)
	for _, c := range s.cards {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Card(_ context.Context, userID, cardID uuid.UUID) (finance.CreditCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cardLocked(userID, cardID)
}

func (s *Store) cardLocked(userID, cardID uuid.UUID) (finance.CreditCard, error) {
	c, ok := s.cards[cardID]
	if !ok || c.UserID != userID {
		return finance.CreditCard{}, errs.ErrNotFound
	}
	return c, nil
}

func (s *Store) CreateCard(_ context.Context, c finance.CreditCard) (finance.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.cards {
		if other.UserID == c.UserID && other.Name == c.Name {
			return finance.CreditCard{}, errs.ErrExists
		}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	s.cards[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCard(_ context.Context, userID, cardID uuid.UUID, name string, limit decimal.Decimal) (finance.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.cardLocked(userID, cardID)
	if err != nil {
		return finance.CreditCard{}, err
	}
	if limit.LessThan(c.UsedLimit) {
		return finance.CreditCard{}, errs.ErrLimitBelowUsed
	}
	for _, other := range s.cards {
		if other.ID != cardID && other.UserID == userID && other.Name == name {
			return finance.CreditCard{}, errs.ErrExists
		}
	}
	c.Name = name
	c.CreditLimit = limit
	s.cards[cardID] = c
	return c, nil
}

func (s *Store) DeleteCard(_ context.Context, userID, cardID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.cardLocked(userID, cardID); err != nil {
		return err
	}
	if s.refCountLocked(userID, finance.CardRef(cardID)) > 0 {
		return errs.ErrAccountReferenced
	}
	delete(s.cards, cardID)
	return nil
}

// --- Cash ---

func (s *Store) Cash(_ context.Context, userID uuid.UUID) (finance.CashBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cb, ok := s.cash[userID]
	if !ok {
		return finance.CashBalance{}, errs.ErrNotFound
	}
	return cb, nil
}

func (s *Store) UpsertCash(_ context.Context, userID uuid.UUID, balance decimal.Decimal) (finance.CashBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.cash[userID]
	if !ok {
		// First write sets both fields equal.
		cb = finance.CashBalance{UserID: userID, Balance: balance, InitialBalance: balance}
	} else {
		cb.Balance = balance
	}
	cb.UpdatedAt = s.now().UTC()
	s.cash[userID] = cb
	return cb, nil
}

// cashLocked returns the user's cash record, materializing a zero-initial row
// when income or an expense touches cash before any explicit setup.
func (s *Store) cashLocked(userID uuid.UUID) finance.CashBalance {
	cb, ok := s.cash[userID]
	if !ok {
		cb = finance.CashBalance{UserID: userID, Balance: decimal.Zero, InitialBalance: decimal.Zero}
	}
	return cb
}

// --- Income ---

func (s *Store) Income(_ context.Context, userID, incomeID uuid.UUID) (finance.IncomeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.income[incomeID]
	if !ok || e.UserID != userID {
		return finance.IncomeEntry{}, errs.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListIncome(_ context.Context, userID uuid.UUID, month time.Month, year int) ([]finance.IncomeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]finance.IncomeEntry, 0)
	for _, e := range s.income {
		if e.UserID != userID {
			continue
		}
		if year != 0 && (e.Date.UTC().Year() != year || e.Date.UTC().Month() != month) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) CreateIncome(_ context.Context, e finance.IncomeEntry) (finance.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyIncomeLocked(e, false); err != nil {
		return finance.IncomeEntry{}, err
	}
	s.income[e.ID] = e
	return e, nil
}

func (s *Store) UpdateIncome(_ context.Context, old, updated finance.IncomeEntry) (finance.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.income[old.ID]; !ok {
		return finance.IncomeEntry{}, errs.ErrNotFound
	}
	if err := s.applyIncomeLocked(old, true); err != nil {
		return finance.IncomeEntry{}, err
	}
	if err := s.applyIncomeLocked(updated, false); err != nil {
		// restore the reversed old delta
		_ = s.applyIncomeLocked(old, false)
		return finance.IncomeEntry{}, err
	}
	s.income[updated.ID] = updated
	return updated, nil
}

func (s *Store) DeleteIncome(_ context.Context, e finance.IncomeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.income[e.ID]; !ok {
		return errs.ErrNotFound
	}
	if err := s.applyIncomeLocked(e, true); err != nil {
		return err
	}
	delete(s.income, e.ID)
	return nil
}

// applyIncomeLocked credits (or, reversed, debits) the referenced account.
func (s *Store) applyIncomeLocked(e finance.IncomeEntry, reverse bool) error {
	amount := e.Amount
	if reverse {
		amount = amount.Neg()
	}
	switch e.CreditedTo.Kind {
	case finance.RefBank:
		b, err := s.bankLocked(e.UserID, e.CreditedTo.ID)
		if err != nil {
			return err
		}
		b.CurrentBalance = b.CurrentBalance.Add(amount)
		s.banks[b.ID] = b
	case finance.RefCash:
		cb := s.cashLocked(e.UserID)
		cb.Balance = cb.Balance.Add(amount)
		cb.UpdatedAt = s.now().UTC()
		s.cash[e.UserID] = cb
	default:
		return errs.ErrInvalid
	}
	return nil
}

// --- Expenses ---

func (s *Store) Expense(_ context.Context, userID, expenseID uuid.UUID) (finance.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[expenseID]
	if !ok || e.UserID != userID {
		return finance.Expense{}, errs.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, userID uuid.UUID, month time.Month, year int) ([]finance.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]finance.Expense, 0)
	for _, e := range s.expenses {
		if e.UserID != userID {
			continue
		}
		if year != 0 && (e.Date.UTC().Year() != year || e.Date.UTC().Month() != month) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, e finance.Expense, applyBalance bool) (finance.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkExpenseRefLocked(e); err != nil {
		return finance.Expense{}, err
	}
	if applyBalance {
		if err := s.applyExpenseLocked(e, false, true); err != nil {
			return finance.Expense{}, err
		}
	}
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, old, updated finance.Expense, applyBalance bool) (finance.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[old.ID]; !ok {
		return finance.Expense{}, errs.ErrNotFound
	}
	if err := s.checkExpenseRefLocked(updated); err != nil {
		return finance.Expense{}, err
	}
	if applyBalance {
		if err := s.applyExpenseLocked(old, true, false); err != nil {
			return finance.Expense{}, err
		}
		if err := s.applyExpenseLocked(updated, false, true); err != nil {
			_ = s.applyExpenseLocked(old, false, false)
			return finance.Expense{}, err
		}
	}
	s.expenses[updated.ID] = updated
	return updated, nil
}

func (s *Store) DeleteExpense(_ context.Context, e finance.Expense, applyBalance bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; !ok {
		return errs.ErrNotFound
	}
	if applyBalance {
		if err := s.applyExpenseLocked(e, true, false); err != nil {
			return err
		}
	}
	delete(s.expenses, e.ID)
	return nil
}

// checkExpenseRefLocked verifies the referenced account exists even when the
// balance itself is left untouched.
func (s *Store) checkExpenseRefLocked(e finance.Expense) error {
	switch e.PaidWith.Kind {
	case finance.RefBank:
		_, err := s.bankLocked(e.UserID, e.PaidWith.ID)
		return err
	case finance.RefCreditCard:
		_, err := s.cardLocked(e.UserID, e.PaidWith.ID)
		return err
	case finance.RefCash:
		return nil
	}
	return errs.ErrInvalid
}

// applyExpenseLocked debits (or, reversed, credits) the referenced account.
// Balance and limit validation runs only on forward application.
func (s *Store) applyExpenseLocked(e finance.Expense, reverse, validate bool) error {
	switch e.PaidWith.Kind {
	case finance.RefBank:
		b, err := s.bankLocked(e.UserID, e.PaidWith.ID)
		if err != nil {
			return err
		}
		if validate && b.CurrentBalance.LessThan(e.Amount) {
			return errs.ErrInsufficientBankBalance
		}
		if reverse {
			b.CurrentBalance = b.CurrentBalance.Add(e.Amount)
		} else {
			b.CurrentBalance = b.CurrentBalance.Sub(e.Amount)
		}
		s.banks[b.ID] = b
	case finance.RefCash:
		cb := s.cashLocked(e.UserID)
		if validate && cb.Balance.LessThan(e.Amount) {
			return errs.ErrInsufficientCashBalance
		}
		if reverse {
			cb.Balance = cb.Balance.Add(e.Amount)
		} else {
			cb.Balance = cb.Balance.Sub(e.Amount)
		}
		cb.UpdatedAt = s.now().UTC()
		s.cash[e.UserID] = cb
	case finance.RefCreditCard:
		c, err := s.cardLocked(e.UserID, e.PaidWith.ID)
		if err != nil {
			return err
		}
		if validate && c.CreditLimit.Sub(c.UsedLimit).LessThan(e.Amount) {
			return errs.ErrInsufficientCreditLimit
		}
		if reverse {
			c.UsedLimit = c.UsedLimit.Sub(e.Amount)
		} else {
			c.UsedLimit = c.UsedLimit.Add(e.Amount)
		}
		s.cards[c.ID] = c
	default:
		return errs.ErrInvalid
	}
	return nil
}

// --- Aggregation reads ---

func (s *Store) SumIncome(_ context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range s.income {
		if e.UserID == userID && inRange(e.Date, from, to) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (s *Store) SumExpenses(_ context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range s.expenses {
		if e.UserID == userID && inRange(e.Date, from, to) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (s *Store) SumIncomeByRef(_ context.Context, userID uuid.UUID, ref finance.AccountRef, before time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range s.income {
		if e.UserID == userID && e.CreditedTo == ref && e.Date.Before(before) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (s *Store) SumExpensesByRef(_ context.Context, userID uuid.UUID, ref finance.AccountRef, before time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range s.expenses {
		if e.UserID == userID && e.PaidWith == ref && e.Date.Before(before) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// refCountLocked counts transactions referencing an account.
func (s *Store) refCountLocked(userID uuid.UUID, ref finance.AccountRef) int {
	n := 0
	for _, e := range s.income {
		if e.UserID == userID && e.CreditedTo == ref {
			n++
		}
	}
	for _, e := range s.expenses {
		if e.UserID == userID && e.PaidWith == ref {
			n++
		}
	}
	return n
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
