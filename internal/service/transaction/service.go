// Package transaction implements the balance mutator: income and expense
// create/update/delete, where every write applies a signed delta to the
// referenced account and every edit reverses the stored old values before
// applying the new ones. The stores execute each mutation (log row + account
// row) as one transaction with row locking, so the read-validate-write
// sequence cannot race.
package transaction

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/finance"
)

// Repo defines read operations needed by the service.
type Repo interface {
	User(ctx context.Context, userID uuid.UUID) (finance.User, error)
	Income(ctx context.Context, userID, incomeID uuid.UUID) (finance.IncomeEntry, error)
	// ListIncome filters by calendar month when month and year are non-zero.
	ListIncome(ctx context.Context, userID uuid.UUID, month time.Month, year int) ([]finance.IncomeEntry, error)
	Expense(ctx context.Context, userID, expenseID uuid.UUID) (finance.Expense, error)
	ListExpenses(ctx context.Context, userID uuid.UUID, month time.Month, year int) ([]finance.Expense, error)
}

// Writer defines write operations needed by the service. Each method is one
// storage transaction: it locks the referenced account row, validates the
// balance where applyBalance demands it, applies or reverses the delta, and
// writes the log row together with the account row.
type Writer interface {
	CreateIncome(ctx context.Context, e finance.IncomeEntry) (finance.IncomeEntry, error)
	UpdateIncome(ctx context.Context, old, updated finance.IncomeEntry) (finance.IncomeEntry, error)
	DeleteIncome(ctx context.Context, e finance.IncomeEntry) error
	CreateExpense(ctx context.Context, e finance.Expense, applyBalance bool) (finance.Expense, error)
	UpdateExpense(ctx context.Context, old, updated finance.Expense, applyBalance bool) (finance.Expense, error)
	DeleteExpense(ctx context.Context, e finance.Expense, applyBalance bool) error
}

// IncomeInput carries a validated income write.
type IncomeInput struct {
	Source     string
	Amount     decimal.Decimal
	CreditedTo finance.AccountRef
	Date       time.Time
}

// ExpenseInput carries a validated expense write.
type ExpenseInput struct {
	Title    string
	Amount   decimal.Decimal
	PaidWith finance.AccountRef
	Date     time.Time
}

// Service exposes transaction CRUD with balance upkeep.
type Service interface {
	CreateIncome(ctx context.Context, userID uuid.UUID, in IncomeInput) (finance.IncomeEntry, error)
	ListIncome(ctx context.Context, userID uuid.UUID, month time.Month, year int) ([]finance.IncomeEntry, error)
	UpdateIncome(ctx context.Context, userID, incomeID uuid.UUID, in IncomeInput) (finance.IncomeEntry, error)
	DeleteIncome(ctx context.Context, userID, incomeID uuid.UUID) error
	CreateExpense(ctx context.Context, userID uuid.UUID, in ExpenseInput) (finance.Expense, error)
	ListExpenses(ctx context.Context, userID uuid.UUID, month time.Month, year int) ([]finance.Expense, error)
	UpdateExpense(ctx context.Context, userID, expenseID uuid.UUID, in ExpenseInput) (finance.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID uuid.UUID) error
}

type service struct {
	repo   Repo
	writer Writer
}

// New constructs the transaction service.
func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) CreateIncome(ctx context.Context, userID uuid.UUID, in IncomeInput) (finance.IncomeEntry, error) {
	e, err := buildIncome(userID, in)
	if err != nil {
		return finance.IncomeEntry{}, err
	}
	e.ID = uuid.New()
	return s.writer.CreateIncome(ctx, e)
}

func (s *service) ListIncome(ctx context.Context, userID uuid.UUID, month time.Month, year int) ([]finance.IncomeEntry, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListIncome(ctx, userID, month, year)
}

// UpdateIncome reverses the stored old entry before applying the new one,
// because the credited account itself may have changed between the two.
func (s *service) UpdateIncome(ctx context.Context, userID, incomeID uuid.UUID, in IncomeInput) (finance.IncomeEntry, error) {
	if incomeID == uuid.Nil {
		return finance.IncomeEntry{}, errs.ErrInvalid
	}
	updated, err := buildIncome(userID, in)
	if err != nil {
		return finance.IncomeEntry{}, err
	}
	old, err := s.repo.Income(ctx, userID, incomeID)
	if err != nil {
		return finance.IncomeEntry{}, err
	}
	updated.ID = old.ID
	return s.writer.UpdateIncome(ctx, old, updated)
}

func (s *service) DeleteIncome(ctx context.Context, userID, incomeID uuid.UUID) error {
	if userID == uuid.Nil || incomeID == uuid.Nil {
		return errs.ErrInvalid
	}
	old, err := s.repo.Income(ctx, userID, incomeID)
	if err != nil {
		return err
	}
	return s.writer.DeleteIncome(ctx, old)
}

func (s *service) CreateExpense(ctx context.Context, userID uuid.UUID, in ExpenseInput) (finance.Expense, error) {
	e, err := buildExpense(userID, in)
	if err != nil {
		return finance.Expense{}, err
	}
	apply, err := s.appliesBalances(ctx, userID)
	if err != nil {
		return finance.Expense{}, err
	}
	e.ID = uuid.New()
	return s.writer.CreateExpense(ctx, e, apply)
}

func (s *service) ListExpenses(ctx context.Context, userID uuid.UUID, month time.Month, year int) ([]finance.Expense, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListExpenses(ctx, userID, month, year)
}

func (s *service) UpdateExpense(ctx context.Context, userID, expenseID uuid.UUID, in ExpenseInput) (finance.Expense, error) {
	if expenseID == uuid.Nil {
		return finance.Expense{}, errs.ErrInvalid
	}
	updated, err := buildExpense(userID, in)
	if err != nil {
		return finance.Expense{}, err
	}
	old, err := s.repo.Expense(ctx, userID, expenseID)
	if err != nil {
		return finance.Expense{}, err
	}
	apply, err := s.appliesBalances(ctx, userID)
	if err != nil {
		return finance.Expense{}, err
	}
	updated.ID = old.ID
	return s.writer.UpdateExpense(ctx, old, updated, apply)
}

func (s *service) DeleteExpense(ctx context.Context, userID, expenseID uuid.UUID) error {
	if userID == uuid.Nil || expenseID == uuid.Nil {
		return errs.ErrInvalid
	}
	old, err := s.repo.Expense(ctx, userID, expenseID)
	if err != nil {
		return err
	}
	apply, err := s.appliesBalances(ctx, userID)
	if err != nil {
		return err
	}
	return s.writer.DeleteExpense(ctx, old, apply)
}

// appliesBalances resolves the tracking-option policy: expense-only users get
// neither balance validation nor balance mutation on expense writes.
func (s *service) appliesBalances(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := s.repo.User(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.Tracking.AppliesExpenseBalances(), nil
}

func buildIncome(userID uuid.UUID, in IncomeInput) (finance.IncomeEntry, error) {
	if userID == uuid.Nil {
		return finance.IncomeEntry{}, errs.ErrInvalid
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		return finance.IncomeEntry{}, errs.Invalid("source is required")
	}
	if !finance.ValidAmount(in.Amount) {
		return finance.IncomeEntry{}, errs.Invalid("amount must be a positive amount with at most 2 decimal places")
	}
	if !in.CreditedTo.ValidForIncome() {
		return finance.IncomeEntry{}, errs.Invalid("creditedTo must be a bank or cash")
	}
	if in.Date.IsZero() {
		return finance.IncomeEntry{}, errs.Invalid("date is required")
	}
	return finance.IncomeEntry{
		UserID:     userID,
		Source:     source,
		Amount:     in.Amount,
		CreditedTo: in.CreditedTo,
		Date:       in.Date.UTC(),
	}, nil
}

func buildExpense(userID uuid.UUID, in ExpenseInput) (finance.Expense, error) {
	if userID == uuid.Nil {
		return finance.Expense{}, errs.ErrInvalid
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return finance.Expense{}, errs.Invalid("title is required")
	}
	if !finance.ValidAmount(in.Amount) {
		return finance.Expense{}, errs.Invalid("amount must be a positive amount with at most 2 decimal places")
	}
	if !in.PaidWith.ValidForExpense() {
		return finance.Expense{}, errs.Invalid("paymentMethod must be bank, cash or credit_card")
	}
	if in.Date.IsZero() {
		return finance.Expense{}, errs.Invalid("date is required")
	}
	return finance.Expense{
		UserID:   userID,
		Title:    title,
		Amount:   in.Amount,
		PaidWith: in.PaidWith,
		Date:     in.Date.UTC(),
	}, nil
}
