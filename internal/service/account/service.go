// Package account implements the account-store rules: per-user unique,
// upper-cased names for banks and cards, initial-balance edits that shift the
// running balance by the same delta, credit-limit floors, reference-guarded
// deletes, and the singleton cash upsert.
package account

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/finance"
)

// Repo defines read operations needed by the service.
type Repo interface {
	ListBanks(ctx context.Context, userID uuid.UUID) ([]finance.Bank, error)
	Bank(ctx context.Context, userID, bankID uuid.UUID) (finance.Bank, error)
	ListCards(ctx context.Context, userID uuid.UUID) ([]finance.CreditCard, error)
	Card(ctx context.Context, userID, cardID uuid.UUID) (finance.CreditCard, error)
	Cash(ctx context.Context, userID uuid.UUID) (finance.CashBalance, error)
}

// Writer defines write operations needed by the service. Each mutation is a
// single storage unit of work: the stores run the uniqueness, reference, and
// limit checks inside the same transaction as the write.
type Writer interface {
	CreateBank(ctx context.Context, b finance.Bank) (finance.Bank, error)
	// UpdateBank renames the bank and moves its initial balance; the store
	// shifts current_balance by (initial - old initial) atomically.
	UpdateBank(ctx context.Context, userID, bankID uuid.UUID, name string, initial decimal.Decimal) (finance.Bank, error)
	DeleteBank(ctx context.Context, userID, bankID uuid.UUID) error
	CreateCard(ctx context.Context, c finance.CreditCard) (finance.CreditCard, error)
	UpdateCard(ctx context.Context, userID, cardID uuid.UUID, name string, limit decimal.Decimal) (finance.CreditCard, error)
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error
	UpsertCash(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) (finance.CashBalance, error)
}

// Service exposes account CRUD for banks, credit cards, and cash.
type Service interface {
	CreateBank(ctx context.Context, userID uuid.UUID, name string, initial decimal.Decimal) (finance.Bank, error)
	ListBanks(ctx context.Context, userID uuid.UUID) ([]finance.Bank, error)
	UpdateBank(ctx context.Context, userID, bankID uuid.UUID, name string, initial decimal.Decimal) (finance.Bank, error)
	DeleteBank(ctx context.Context, userID, bankID uuid.UUID) error
	CreateCard(ctx context.Context, userID uuid.UUID, name string, limit decimal.Decimal) (finance.CreditCard, error)
	ListCards(ctx context.Context, userID uuid.UUID) ([]finance.CreditCard, error)
	UpdateCard(ctx context.Context, userID, cardID uuid.UUID, name string, limit decimal.Decimal) (finance.CreditCard, error)
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error
	Cash(ctx context.Context, userID uuid.UUID) (finance.CashBalance, error)
	SetCash(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) (finance.CashBalance, error)
}

type service struct {
	repo   Repo
	writer Writer
}

// New constructs the account service.
func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) CreateBank(ctx context.Context, userID uuid.UUID, name string, initial decimal.Decimal) (finance.Bank, error) {
	name, err := normalizeName(name)
	if err != nil {
		return finance.Bank{}, err
	}
	if userID == uuid.Nil {
		return finance.Bank{}, errs.ErrInvalid
	}
	if !finance.ValidBalance(initial) {
		return finance.Bank{}, errs.Invalid("initial balance must be a non-negative amount")
	}
	b := finance.Bank{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           name,
		InitialBalance: initial,
		CurrentBalance: initial,
	}
	return s.writer.CreateBank(ctx, b)
}

func (s *service) ListBanks(ctx context.Context, userID uuid.UUID) ([]finance.Bank, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListBanks(ctx, userID)
}

func (s *service) UpdateBank(ctx context.Context, userID, bankID uuid.UUID, name string, initial decimal.Decimal) (finance.Bank, error) {
	name, err := normalizeName(name)
	if err != nil {
		return finance.Bank{}, err
	}
	if userID == uuid.Nil || bankID == uuid.Nil {
		return finance.Bank{}, errs.ErrInvalid
	}
	if !finance.ValidBalance(initial) {
		return finance.Bank{}, errs.Invalid("initial balance must be a non-negative amount")
	}
	return s.writer.UpdateBank(ctx, userID, bankID, name, initial)
}

func (s *service) DeleteBank(ctx context.Context, userID, bankID uuid.UUID) error {
	if userID == uuid.Nil || bankID == uuid.Nil {
		return errs.ErrInvalid
	}
	return s.writer.DeleteBank(ctx, userID, bankID)
}

func (s *service) CreateCard(ctx context.Context, userID uuid.UUID, name string, limit decimal.Decimal) (finance.CreditCard, error) {
	name, err := normalizeName(name)
	if err != nil {
		return finance.CreditCard{}, err
	}
	if userID == uuid.Nil {
		return finance.CreditCard{}, errs.ErrInvalid
	}
	if !finance.ValidAmount(limit) {
		return finance.CreditCard{}, errs.Invalid("credit limit must be a positive amount")
	}
	c := finance.CreditCard{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		CreditLimit: limit,
		UsedLimit:   decimal.Zero,
	}
	return s.writer.CreateCard(ctx, c)
}

func (s *service) ListCards(ctx context.Context, userID uuid.UUID) ([]finance.CreditCard, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListCards(ctx, userID)
}

func (s *service) UpdateCard(ctx context.Context, userID, cardID uuid.UUID, name string, limit decimal.Decimal) (finance.CreditCard, error) {
	name, err := normalizeName(name)
	if err != nil {
		return finance.CreditCard{}, err
	}
	if userID == uuid.Nil || cardID == uuid.Nil {
		return finance.CreditCard{}, errs.ErrInvalid
	}
	if !finance.ValidAmount(limit) {
		return finance.CreditCard{}, errs.Invalid("credit limit must be a positive amount")
	}
	return s.writer.UpdateCard(ctx, userID, cardID, name, limit)
}

func (s *service) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	if userID == uuid.Nil || cardID == uuid.Nil {
		return errs.ErrInvalid
	}
	return s.writer.DeleteCard(ctx, userID, cardID)
}

func (s *service) Cash(ctx context.Context, userID uuid.UUID) (finance.CashBalance, error) {
	if userID == uuid.Nil {
		return finance.CashBalance{}, errs.ErrInvalid
	}
	return s.repo.Cash(ctx, userID)
}

func (s *service) SetCash(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) (finance.CashBalance, error) {
	if userID == uuid.Nil {
		return finance.CashBalance{}, errs.ErrInvalid
	}
	if !finance.ValidBalance(balance) {
		return finance.CashBalance{}, errs.Invalid("balance must be a non-negative amount")
	}
	return s.writer.UpsertCash(ctx, userID, balance)
}

// normalizeName trims and upper-cases an account name. Names are stored
// upper-cased and are unique per user.
func normalizeName(name string) (string, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return "", errs.Invalid("name is required")
	}
	return name, nil
}
