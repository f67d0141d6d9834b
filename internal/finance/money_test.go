package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestValidAmount(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"positive two places", "12.50", true},
		{"integer", "3", true},
		{"zero", "0", false},
		{"negative", "-1", false},
		{"three places", "1.005", false},
		{"max", "999999999999999999.99", true},
		{"above max", "1000000000000000000.00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidAmount(decimal.RequireFromString(tc.in)); got != tc.want {
				t.Fatalf("ValidAmount(%s) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidBalanceAllowsZero(t *testing.T) {
	if !ValidBalance(decimal.Zero) {
		t.Fatal("zero should be a valid balance")
	}
	if ValidBalance(decimal.RequireFromString("-0.01")) {
		t.Fatal("negative should not be a valid balance")
	}
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(time.January, 2024)
	if !start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", end)
	}

	// December rolls into the next year.
	_, end = MonthRange(time.December, 2024)
	if !end.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("december end = %v", end)
	}
}

func TestAccountRefValidators(t *testing.T) {
	bank := BankRef(uuid.New())
	cash := CashRef()
	card := CardRef(uuid.New())

	if !bank.ValidForIncome() || !cash.ValidForIncome() {
		t.Fatal("banks and cash should accept income")
	}
	if card.ValidForIncome() {
		t.Fatal("cards cannot be credited")
	}
	if !bank.ValidForExpense() || !cash.ValidForExpense() || !card.ValidForExpense() {
		t.Fatal("all three kinds should fund expenses")
	}
	if (AccountRef{Kind: RefBank}).ValidForIncome() {
		t.Fatal("bank ref without an id should be invalid")
	}
	if (AccountRef{Kind: RefCash, ID: uuid.New()}).ValidForExpense() {
		t.Fatal("cash ref with an id should be invalid")
	}
}
