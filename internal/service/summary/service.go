// Package summary implements historical balance reconstruction and the
// monthly summary aggregator. Balances "as of" a month end are always
// recomputed from initial balances plus transaction sums, never read from the
// live running totals, trading query cost for correctness.
package summary

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/finance"
)

// Repo defines the reads the aggregator composes.
type Repo interface {
	User(ctx context.Context, userID uuid.UUID) (finance.User, error)
	ListBanks(ctx context.Context, userID uuid.UUID) ([]finance.Bank, error)
	ListCards(ctx context.Context, userID uuid.UUID) ([]finance.CreditCard, error)
	Cash(ctx context.Context, userID uuid.UUID) (finance.CashBalance, error)
	// SumIncome and SumExpenses total amounts dated in the half-open interval
	// [from, to).
	SumIncome(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	SumExpenses(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	// SumIncomeByRef and SumExpensesByRef total amounts for one account dated
	// strictly before the boundary.
	SumIncomeByRef(ctx context.Context, userID uuid.UUID, ref finance.AccountRef, before time.Time) (decimal.Decimal, error)
	SumExpensesByRef(ctx context.Context, userID uuid.UUID, ref finance.AccountRef, before time.Time) (decimal.Decimal, error)
}

// Result is the monthly summary payload. Bank CurrentBalance, card UsedLimit,
// and cash Balance fields hold the reconstructed month-end values, not the
// live totals.
type Result struct {
	MonthlyIncome       decimal.Decimal
	TotalExpenses       decimal.Decimal
	TotalCurrentWealth  decimal.Decimal
	TotalInitialBalance decimal.Decimal
	NetSavings          decimal.Decimal
	Banks               []finance.Bank
	CreditCards         []finance.CreditCard
	Cash                *finance.CashBalance
	IsCurrentMonth      bool
	IsMonthCompleted    bool
	Message             string
}

// Service computes monthly summaries and point-in-time account balances.
type Service interface {
	Monthly(ctx context.Context, userID uuid.UUID, month time.Month, year int) (Result, error)
	// BankBalanceAt reconstructs one bank's balance as of the end of the
	// given month, independent of its live current balance.
	BankBalanceAt(ctx context.Context, userID uuid.UUID, bank finance.Bank, month time.Month, year int) (decimal.Decimal, error)
}

type service struct {
	repo Repo
	now  func() time.Time
}

// New constructs the summary service.
func New(repo Repo) Service { return &service{repo: repo, now: time.Now} }

// NewAt constructs the summary service with a fixed clock, for tests.
func NewAt(repo Repo, now func() time.Time) Service { return &service{repo: repo, now: now} }

// Messages returned on the summary guard rails. The client branches on these
// to distinguish empty months from errors.
const (
	msgFutureDate         = "Future date selected"
	msgBeforeRegistration = "Date before registration"
	msgNoTransactions     = "No transactions found for this month"
)

func (s *service) Monthly(ctx context.Context, userID uuid.UUID, month time.Month, year int) (Result, error) {
	user, err := s.repo.User(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	now := s.now().UTC()
	isCurrent := year == now.Year() && month == now.Month()
	completed := monthBefore(year, month, now.Year(), now.Month())

	// Future months short-circuit before any aggregation runs.
	if monthBefore(now.Year(), now.Month(), year, month) {
		return zeroResult(msgFutureDate, false, false), nil
	}
	reg := user.CreatedAt.UTC()
	if monthBefore(year, month, reg.Year(), reg.Month()) {
		return zeroResult(msgBeforeRegistration, false, true), nil
	}

	start, end := finance.MonthRange(month, year)

	var (
		monthlyIncome decimal.Decimal
		totalExpenses decimal.Decimal
		banks         []finance.Bank
		cards         []finance.CreditCard
		cash          *finance.CashBalance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		monthlyIncome, err = s.repo.SumIncome(gctx, userID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		totalExpenses, err = s.repo.SumExpenses(gctx, userID, start, end)
		return err
	})
	g.Go(func() error {
		all, err := s.repo.ListBanks(gctx, userID)
		if err != nil {
			return err
		}
		// Banks opened after the month end did not exist at that point in
		// history and are excluded, not shown with a zero balance.
		for _, b := range all {
			if b.CreatedAt.Before(end) {
				banks = append(banks, b)
			}
		}
		return nil
	})
	if user.Tracking.IncludesCreditCards() {
		g.Go(func() error {
			all, err := s.repo.ListCards(gctx, userID)
			if err != nil {
				return err
			}
			for _, c := range all {
				if c.CreatedAt.Before(end) {
					cards = append(cards, c)
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		cb, err := s.repo.Cash(gctx, userID)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		cash = &cb
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	totalInitial := decimal.Zero
	totalWealth := decimal.Zero
	for i := range banks {
		hist, err := s.balanceAt(ctx, userID, finance.BankRef(banks[i].ID), banks[i].InitialBalance, end)
		if err != nil {
			return Result{}, err
		}
		totalInitial = totalInitial.Add(banks[i].InitialBalance)
		totalWealth = totalWealth.Add(hist)
		banks[i].CurrentBalance = hist
	}
	cashInitial := decimal.Zero
	if cash != nil {
		hist, err := s.balanceAt(ctx, userID, finance.CashRef(), cash.InitialBalance, end)
		if err != nil {
			return Result{}, err
		}
		cashInitial = cash.InitialBalance
		totalInitial = totalInitial.Add(cash.InitialBalance)
		totalWealth = totalWealth.Add(hist)
		cash.Balance = hist
	}
	// Card historical used limit ignores the live used_limit entirely.
	for i := range cards {
		used, err := s.repo.SumExpensesByRef(ctx, userID, finance.CardRef(cards[i].ID), end)
		if err != nil {
			return Result{}, err
		}
		cards[i].UsedLimit = used
	}

	if monthlyIncome.IsZero() && totalExpenses.IsZero() && len(banks) == 0 && cashInitial.IsZero() {
		return zeroResult(msgNoTransactions, isCurrent, completed), nil
	}

	return Result{
		MonthlyIncome:       monthlyIncome,
		TotalExpenses:       totalExpenses,
		TotalCurrentWealth:  totalWealth,
		TotalInitialBalance: totalInitial,
		NetSavings:          totalInitial.Add(monthlyIncome).Sub(totalExpenses),
		Banks:               banks,
		CreditCards:         cards,
		Cash:                cash,
		IsCurrentMonth:      isCurrent,
		IsMonthCompleted:    completed,
	}, nil
}

func (s *service) BankBalanceAt(ctx context.Context, userID uuid.UUID, bank finance.Bank, month time.Month, year int) (decimal.Decimal, error) {
	_, end := finance.MonthRange(month, year)
	return s.balanceAt(ctx, userID, finance.BankRef(bank.ID), bank.InitialBalance, end)
}

// balanceAt replays transaction deltas up to the boundary on top of the
// initial balance.
func (s *service) balanceAt(ctx context.Context, userID uuid.UUID, ref finance.AccountRef, initial decimal.Decimal, before time.Time) (decimal.Decimal, error) {
	credited, err := s.repo.SumIncomeByRef(ctx, userID, ref, before)
	if err != nil {
		return decimal.Zero, err
	}
	debited, err := s.repo.SumExpensesByRef(ctx, userID, ref, before)
	if err != nil {
		return decimal.Zero, err
	}
	return initial.Add(credited).Sub(debited), nil
}

func zeroResult(message string, isCurrent, completed bool) Result {
	return Result{
		MonthlyIncome:       decimal.Zero,
		TotalExpenses:       decimal.Zero,
		TotalCurrentWealth:  decimal.Zero,
		TotalInitialBalance: decimal.Zero,
		NetSavings:          decimal.Zero,
		Banks:               []finance.Bank{},
		CreditCards:         []finance.CreditCard{},
		IsCurrentMonth:      isCurrent,
		IsMonthCompleted:    completed,
		Message:             message,
	}
}

// monthBefore reports whether (y1, m1) is strictly before (y2, m2).
func monthBefore(y1 int, m1 time.Month, y2 int, m2 time.Month) bool {
	if y1 != y2 {
		return y1 < y2
	}
	return m1 < m2
}

func isNotFound(err error) bool {
	return errors.Is(err, errs.ErrNotFound)
}
