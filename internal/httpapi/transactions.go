package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/service/transaction"
)

// parseTxDate accepts a bare YYYY-MM-DD date, in which case the current
// wall-clock time of day is appended, or a full RFC 3339 timestamp.
func parseTxDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errs.Invalid("date is required")
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		now := time.Now().UTC()
		return time.Date(d.Year(), d.Month(), d.Day(),
			now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errs.Invalid("date must be YYYY-MM-DD or RFC 3339")
	}
	return t.UTC(), nil
}

// parseMonthYear reads the month and year query parameters.
func parseMonthYear(r *http.Request) (time.Month, int, error) {
	monthStr := r.URL.Query().Get("month")
	yearStr := r.URL.Query().Get("year")
	if monthStr == "" || yearStr == "" {
		return 0, 0, errs.Invalid("Month and year are required")
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, errs.Invalid("month must be between 1 and 12")
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1 {
		return 0, 0, errs.Invalid("year must be a positive number")
	}
	return time.Month(month), year, nil
}

func (s *Server) createIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	in, err := incomeInput(req)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	e, err := s.txSvc.CreateIncome(r.Context(), userID(r), in)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toIncomeResponse(e))
}

func (s *Server) listIncome(w http.ResponseWriter, r *http.Request) {
	month, year, err := parseMonthYear(r)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	entries, err := s.txSvc.ListIncome(r.Context(), userID(r), month, year)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	out := make([]incomeResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toIncomeResponse(e))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) updateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	in, err := incomeInput(req)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	e, err := s.txSvc.UpdateIncome(r.Context(), userID(r), id, in)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toIncomeResponse(e))
}

func (s *Server) deleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	if err := s.txSvc.DeleteIncome(r.Context(), userID(r), id); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "Income deleted"})
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	in, err := expenseInput(req)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	e, err := s.txSvc.CreateExpense(r.Context(), userID(r), in)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toExpenseResponse(e))
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	month, year, err := parseMonthYear(r)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	entries, err := s.txSvc.ListExpenses(r.Context(), userID(r), month, year)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	out := make([]expenseResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toExpenseResponse(e))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) updateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	in, err := expenseInput(req)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	e, err := s.txSvc.UpdateExpense(r.Context(), userID(r), id, in)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	if err := s.txSvc.DeleteExpense(r.Context(), userID(r), id); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "Expense deleted"})
}

func incomeInput(req incomeRequest) (transaction.IncomeInput, error) {
	date, err := parseTxDate(req.Date)
	if err != nil {
		return transaction.IncomeInput{}, err
	}
	return transaction.IncomeInput{
		Source:     req.Source,
		Amount:     req.Amount,
		CreditedTo: refFromFields(req.CreditedToType, req.CreditedToID),
		Date:       date,
	}, nil
}

func expenseInput(req expenseRequest) (transaction.ExpenseInput, error) {
	date, err := parseTxDate(req.Date)
	if err != nil {
		return transaction.ExpenseInput{}, err
	}
	return transaction.ExpenseInput{
		Title:    req.Title,
		Amount:   req.Amount,
		PaidWith: refFromFields(req.PaymentMethod, req.PaymentSourceID),
		Date:     date,
	}, nil
}
