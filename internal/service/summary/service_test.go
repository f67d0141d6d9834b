package summary_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/fintrack/internal/finance"
	"github.com/tinoosan/fintrack/internal/service/summary"
	"github.com/tinoosan/fintrack/internal/service/transaction"
	"github.com/tinoosan/fintrack/internal/storage/memory"
)

// All scenarios run against a frozen clock in mid June 2024, with a user
// registered in January 2024.
var (
	frozenNow    = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	registeredAt = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	store *memory.Store
	svc   summary.Service
	tx    transaction.Service
	user  finance.User
}

func newFixture(t *testing.T, tracking finance.TrackingOption) *fixture {
	t.Helper()
	store := memory.New()
	user := finance.User{
		ID:        uuid.New(),
		Email:     "user@example.com",
		Tracking:  tracking,
		CreatedAt: registeredAt,
	}
	store.SeedUser(user)
	return &fixture{
		store: store,
		svc:   summary.NewAt(store, func() time.Time { return frozenNow }),
		tx:    transaction.New(store, store),
		user:  user,
	}
}

func (f *fixture) seedBank(t *testing.T, initial string, createdAt time.Time) finance.Bank {
	t.Helper()
	bal := decimal.RequireFromString(initial)
	b := finance.Bank{
		ID:             uuid.New(),
		UserID:         f.user.ID,
		Name:           "MONZO",
		InitialBalance: bal,
		CurrentBalance: bal,
		CreatedAt:      createdAt,
	}
	f.store.SeedBank(b)
	return b
}

func (f *fixture) addIncome(t *testing.T, amount string, ref finance.AccountRef, date time.Time) {
	t.Helper()
	_, err := f.tx.CreateIncome(context.Background(), f.user.ID, transaction.IncomeInput{
		Source: "Salary", Amount: decimal.RequireFromString(amount), CreditedTo: ref, Date: date,
	})
	require.NoError(t, err)
}

func (f *fixture) addExpense(t *testing.T, amount string, ref finance.AccountRef, date time.Time) {
	t.Helper()
	_, err := f.tx.CreateExpense(context.Background(), f.user.ID, transaction.ExpenseInput{
		Title: "Stuff", Amount: decimal.RequireFromString(amount), PaidWith: ref, Date: date,
	})
	require.NoError(t, err)
}

func eq(t *testing.T, want string, got decimal.Decimal, label string) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)),
		"%s = %s, want %s", label, got.String(), want)
}

func TestMonthlyCurrentMonth(t *testing.T) {
	f := newFixture(t, finance.TrackingBoth)
	bank := f.seedBank(t, "1000", registeredAt)
	f.addIncome(t, "500", finance.BankRef(bank.ID), time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC))
	f.addExpense(t, "200", finance.BankRef(bank.ID), time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC))

	res, err := f.svc.Monthly(context.Background(), f.user.ID, time.June, 2024)
	require.NoError(t, err)

	eq(t, "500", res.MonthlyIncome, "monthlyIncome")
	eq(t, "200", res.TotalExpenses, "totalExpenses")
	eq(t, "1300", res.TotalCurrentWealth, "totalCurrentWealth")
	eq(t, "1000", res.TotalInitialBalance, "totalInitialBalance")
	eq(t, "1300", res.NetSavings, "netSavings")
	require.True(t, res.IsCurrentMonth)
	require.False(t, res.IsMonthCompleted)
	require.Empty(t, res.Message)
	require.Len(t, res.Banks, 1)
	eq(t, "1300", res.Banks[0].CurrentBalance, "bank month-end balance")
}

func TestMonthlyPriorMonthIgnoresLaterTransactions(t *testing.T) {
	f := newFixture(t, finance.TrackingBoth)
	bank := f.seedBank(t, "1000", registeredAt)
	f.addIncome(t, "500", finance.BankRef(bank.ID), time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC))
	f.addExpense(t, "200", finance.BankRef(bank.ID), time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC))

	res, err := f.svc.Monthly(context.Background(), f.user.ID, time.May, 2024)
	require.NoError(t, err)

	eq(t, "0", res.MonthlyIncome, "monthlyIncome")
	eq(t, "0", res.TotalExpenses, "totalExpenses")
	eq(t, "1000", res.TotalCurrentWealth, "totalCurrentWealth")
	eq(t, "1000", res.NetSavings, "netSavings")
	require.False(t, res.IsCurrentMonth)
	require.True(t, res.IsMonthCompleted)
	eq(t, "1000", res.Banks[0].CurrentBalance, "bank May month-end balance")
}

func TestMonthlyFutureDate(t *testing.T) {
	f := newFixture(t, finance.TrackingBoth)
	f.seedBank(t, "1000", registeredAt)

	res, err := f.svc.Monthly(context.Background(), f.user.ID, time.July, 2024)
	require.NoError(t, err)

	require.Equal(t, "Future date selected", res.Message)
	eq(t, "0", res.TotalCurrentWealth, "totalCurrentWealth")
	require.False(t, res.IsMonthCompleted)
	require.Empty(t, res.Banks)
}

func TestMonthlyBeforeRegistration(t *testing.T) {
	f := newFixture(t, finance.TrackingBoth)
	f.seedBank(t, "1000", registeredAt)

	res, err := f.svc.Monthly(context.Background(), f.user.ID, time.December, 2023)
	require.NoError(t, err)

	require.Equal(t, "Date before registration", res.Message)
	require.True(t, res.IsMonthCompleted)
	eq(t, "0", res.TotalCurrentWealth, "totalCurrentWealth")
}

func TestMonthlyNoSetup(t *testing.T) {
	f := newFixture(t, finance.TrackingBoth)

	res, err := f.svc.Monthly(context.Background(), f.user.ID, time.March, 2024)
	require.NoError(t, err)

	require.Equal(t, "No transactions found for this month", res.Message)
	require.True(t, res.IsMonthCompleted)
	require.False(t, res.IsCurrentMonth)
}

func TestMonthlyExcludesBanksOpenedLater(t *testing.T) {
	f := newFixture(t, finance.TrackingBoth)
	f.seedBank(t, "1000", registeredAt)
	late := f.seedBank2(t, "NEWBANK", "500", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	res, err := f.svc.Monthly(context.Background(), f.user.ID, time.May, 2024)
	require.NoError(t, err)

	require.Len(t, res.Banks, 1, "a bank opened in June did not exist in May")
	for _, b := range res.Banks {
		require.NotEqual(t, late.ID, b.ID)
	}
	eq(t, "1000", res.TotalCurrentWealth, "totalCurrentWealth")
}

// seedBank2 seeds a bank with a distinct name.
func (f *fixture) seedBank2(t *testing.T, name, initial string, createdAt time.Time) finance.Bank {
	t.Helper()
	bal := decimal.RequireFromString(initial)
	b := finance.Bank{
		ID:             uuid.New(),
		UserID:         f.user.ID,
		Name:           name,
		InitialBalance: bal,
		CurrentBalance: bal,
		CreatedAt:      createdAt,
	}
	f.store.SeedBank(b)
	return b
}

func TestMonthlyCashAndCards(t *testing.T) {
	f := newFixture(t, finance.TrackingBoth)
	card := finance.CreditCard{
		ID:          uuid.New(),
		UserID:      f.user.ID,
		Name:        "AMEX",
		CreditLimit: decimal.RequireFromString("1000"),
		UsedLimit:   decimal.Zero,
		CreatedAt:   registeredAt,
	}
	f.store.SeedCard(card)

	f.addIncome(t, "300", finance.CashRef(), time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC))
	f.addExpense(t, "120", finance.CashRef(), time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	f.addExpense(t, "80", finance.CardRef(card.ID), time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC))
	// June activity must not leak into the May reconstruction.
	f.addExpense(t, "50", finance.CardRef(card.ID), time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC))

	res, err := f.svc.Monthly(context.Background(), f.user.ID, time.May, 2024)
	require.NoError(t, err)

	require.NotNil(t, res.Cash)
	eq(t, "180", res.Cash.Balance, "cash May month-end balance")
	eq(t, "180", res.TotalCurrentWealth, "totalCurrentWealth")
	require.Len(t, res.CreditCards, 1)
	eq(t, "80", res.CreditCards[0].UsedLimit, "card May historical used limit")
}

func TestMonthlyIncomeOnlyUserHidesCards(t *testing.T) {
	f := newFixture(t, finance.TrackingIncome)
	bank := f.seedBank(t, "100", registeredAt)
	f.addIncome(t, "50", finance.BankRef(bank.ID), time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	f.store.SeedCard(finance.CreditCard{
		ID: uuid.New(), UserID: f.user.ID, Name: "AMEX",
		CreditLimit: decimal.RequireFromString("1000"), CreatedAt: registeredAt,
	})

	res, err := f.svc.Monthly(context.Background(), f.user.ID, time.June, 2024)
	require.NoError(t, err)
	require.Empty(t, res.CreditCards, "income-only users do not see cards in summaries")
}

func TestBankBalanceAtNowMatchesLive(t *testing.T) {
	f := newFixture(t, finance.TrackingBoth)
	bank := f.seedBank(t, "1000", registeredAt)
	f.addIncome(t, "500", finance.BankRef(bank.ID), time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC))
	f.addExpense(t, "123.45", finance.BankRef(bank.ID), time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC))
	f.addExpense(t, "10", finance.BankRef(bank.ID), time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC))

	live, err := f.store.Bank(context.Background(), f.user.ID, bank.ID)
	require.NoError(t, err)

	hist, err := f.svc.BankBalanceAt(context.Background(), f.user.ID, live, frozenNow.Month(), frozenNow.Year())
	require.NoError(t, err)

	require.True(t, hist.Equal(live.CurrentBalance),
		"reconstruction at the current month boundary must equal the live balance (got %s, want %s)",
		hist.String(), live.CurrentBalance.String())
}
