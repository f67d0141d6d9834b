package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/fintrack/internal/finance"
	"github.com/tinoosan/fintrack/internal/service/summary"
)

// Request DTOs. Amounts come in as JSON numbers or strings; shopspring
// decimal accepts both.

type registerRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	SecurityQuestion string `json:"securityQuestion"`
	SecurityAnswer   string `json:"securityAnswer"`
	TrackingOption   string `json:"trackingOption"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type recoverRequest struct {
	Email          string `json:"email"`
	SecurityAnswer string `json:"securityAnswer"`
	NewPassword    string `json:"newPassword"`
}

type trackingRequest struct {
	TrackingOption string `json:"trackingOption"`
}

type bankRequest struct {
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

type cardRequest struct {
	Name        string          `json:"name"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
}

type cashRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

type incomeRequest struct {
	Source         string          `json:"source"`
	Amount         decimal.Decimal `json:"amount"`
	CreditedToType string          `json:"creditedToType"`
	CreditedToID   *uuid.UUID      `json:"creditedToId"`
	Date           string          `json:"date"`
}

type expenseRequest struct {
	Title           string          `json:"title"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentSourceID *uuid.UUID      `json:"paymentSourceId"`
	Date            string          `json:"date"`
}

// Response DTOs.

type userResponse struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	SecurityQuestion string    `json:"securityQuestion"`
	TrackingOption   string    `json:"trackingOption"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toUserResponse(u finance.User) userResponse {
	return userResponse{
		ID:               u.ID,
		Email:            u.Email,
		SecurityQuestion: u.SecurityQuestion,
		TrackingOption:   string(u.Tracking),
		CreatedAt:        u.CreatedAt,
	}
}

type bankResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func toBankResponse(b finance.Bank) bankResponse {
	return bankResponse{
		ID:             b.ID,
		Name:           b.Name,
		InitialBalance: b.InitialBalance,
		CurrentBalance: b.CurrentBalance,
		CreatedAt:      b.CreatedAt,
	}
}

func toBankResponses(banks []finance.Bank) []bankResponse {
	out := make([]bankResponse, 0, len(banks))
	for _, b := range banks {
		out = append(out, toBankResponse(b))
	}
	return out
}

type cardResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
	UsedLimit   decimal.Decimal `json:"usedLimit"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func toCardResponse(c finance.CreditCard) cardResponse {
	return cardResponse{
		ID:          c.ID,
		Name:        c.Name,
		CreditLimit: c.CreditLimit,
		UsedLimit:   c.UsedLimit,
		CreatedAt:   c.CreatedAt,
	}
}

func toCardResponses(cards []finance.CreditCard) []cardResponse {
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	return out
}

type cashResponse struct {
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toCashResponse(cb finance.CashBalance) cashResponse {
	return cashResponse{
		Balance:        cb.Balance,
		InitialBalance: cb.InitialBalance,
		UpdatedAt:      cb.UpdatedAt,
	}
}

type incomeResponse struct {
	ID             uuid.UUID       `json:"id"`
	Source         string          `json:"source"`
	Amount         decimal.Decimal `json:"amount"`
	CreditedToType string          `json:"creditedToType"`
	CreditedToID   *uuid.UUID      `json:"creditedToId"`
	Date           time.Time       `json:"date"`
}

func toIncomeResponse(e finance.IncomeEntry) incomeResponse {
	refType, refID := refFields(e.CreditedTo)
	return incomeResponse{
		ID:             e.ID,
		Source:         e.Source,
		Amount:         e.Amount,
		CreditedToType: refType,
		CreditedToID:   refID,
		Date:           e.Date,
	}
}

type expenseResponse struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentSourceID *uuid.UUID      `json:"paymentSourceId"`
	Date            time.Time       `json:"date"`
}

func toExpenseResponse(e finance.Expense) expenseResponse {
	refType, refID := refFields(e.PaidWith)
	return expenseResponse{
		ID:              e.ID,
		Title:           e.Title,
		Amount:          e.Amount,
		PaymentMethod:   refType,
		PaymentSourceID: refID,
		Date:            e.Date,
	}
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type summaryResponse struct {
	MonthlyIncome       decimal.Decimal `json:"monthlyIncome"`
	TotalExpenses       decimal.Decimal `json:"totalExpenses"`
	TotalCurrentWealth  decimal.Decimal `json:"totalCurrentWealth"`
	TotalInitialBalance decimal.Decimal `json:"totalInitialBalance"`
	NetSavings          decimal.Decimal `json:"netSavings"`
	Banks               []bankResponse  `json:"banks"`
	CreditCards         []cardResponse  `json:"creditCards"`
	Cash                *cashResponse   `json:"cash"`
	IsCurrentMonth      bool            `json:"isCurrentMonth"`
	IsMonthCompleted    bool            `json:"isMonthCompleted"`
	Message             string          `json:"message,omitempty"`
}

func toSummaryResponse(res summary.Result) summaryResponse {
	out := summaryResponse{
		MonthlyIncome:       res.MonthlyIncome,
		TotalExpenses:       res.TotalExpenses,
		TotalCurrentWealth:  res.TotalCurrentWealth,
		TotalInitialBalance: res.TotalInitialBalance,
		NetSavings:          res.NetSavings,
		Banks:               toBankResponses(res.Banks),
		CreditCards:         toCardResponses(res.CreditCards),
		IsCurrentMonth:      res.IsCurrentMonth,
		IsMonthCompleted:    res.IsMonthCompleted,
		Message:             res.Message,
	}
	if res.Cash != nil {
		cash := toCashResponse(*res.Cash)
		out.Cash = &cash
	}
	return out
}

// refFields flattens a tagged account reference into the wire columns.
func refFields(ref finance.AccountRef) (string, *uuid.UUID) {
	if ref.Kind == finance.RefCash {
		return string(ref.Kind), nil
	}
	id := ref.ID
	return string(ref.Kind), &id
}

// refFromFields builds a tagged account reference from the wire columns.
func refFromFields(refType string, refID *uuid.UUID) finance.AccountRef {
	ref := finance.AccountRef{Kind: finance.RefKind(refType)}
	if refID != nil {
		ref.ID = *refID
	}
	return ref
}
