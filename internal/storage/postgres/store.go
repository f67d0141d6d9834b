// Package postgres implements the storage interfaces on PostgreSQL using
// pgx. Every balance mutation runs in a single transaction that locks the
// affected account row with SELECT ... FOR UPDATE, so the log row and the
// account balance always move together.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/finance"
)

// Store is a PostgreSQL-backed implementation of every repository and writer
// interface used by the services.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// Ready reports whether the database is reachable.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// numeric columns are selected as ::text and parsed so values round-trip
// without float conversion.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// --- Users ---

const userColumns = `id, email, password_hash, security_question, security_answer_hash, tracking, created_at`

func scanUser(row pgx.Row) (finance.User, error) {
	var u finance.User
	var tracking string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.SecurityQuestion, &u.SecurityAnswerHash, &tracking, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.User{}, errs.ErrNotFound
	}
	if err != nil {
		return finance.User{}, err
	}
	u.Tracking = finance.TrackingOption(tracking)
	return u, nil
}

func (s *Store) User(ctx context.Context, userID uuid.UUID) (finance.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (finance.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (s *Store) CreateUser(ctx context.Context, u finance.User) (finance.User, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, security_question, security_answer_hash, tracking, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.PasswordHash, u.SecurityQuestion, u.SecurityAnswerHash, string(u.Tracking), u.CreatedAt)
	if isUniqueViolation(err) {
		return finance.User{}, errs.ErrExists
	}
	if err != nil {
		return finance.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u finance.User) (finance.User, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET email = $2, password_hash = $3, security_question = $4,
		        security_answer_hash = $5, tracking = $6
		 WHERE id = $1`,
		u.ID, u.Email, u.PasswordHash, u.SecurityQuestion, u.SecurityAnswerHash, string(u.Tracking))
	if isUniqueViolation(err) {
		return finance.User{}, errs.ErrExists
	}
	if err != nil {
		return finance.User{}, err
	}
	if tag.RowsAffected() == 0 {
		return finance.User{}, errs.ErrNotFound
	}
	return u, nil
}

// --- Banks ---

const bankColumns = `id, user_id, name, initial_balance::text, current_balance::text, created_at`

func scanBank(row pgx.Row) (finance.Bank, error) {
	var b finance.Bank
	var initial, current string
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &initial, &current, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.Bank{}, errs.ErrNotFound
	}
	if err != nil {
		return finance.Bank{}, err
	}
	if b.InitialBalance, err = parseDecimal(initial); err != nil {
		return finance.Bank{}, err
	}
	if b.CurrentBalance, err = parseDecimal(current); err != nil {
		return finance.Bank{}, err
	}
	return b, nil
}

func (s *Store) ListBanks(ctx context.Context, userID uuid.UUID) ([]finance.Bank, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+bankColumns+` FROM banks WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]finance.Bank, 0)
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) Bank(ctx context.Context, userID, bankID uuid.UUID) (finance.Bank, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+bankColumns+` FROM banks WHERE id = $1 AND user_id = $2`, bankID, userID)
	return scanBank(row)
}

func (s *Store) CreateBank(ctx context.Context, b finance.Bank) (finance.Bank, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO banks (id, user_id, name, initial_balance, current_balance)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+bankColumns,
		b.ID, b.UserID, b.Name, b.InitialBalance.String(), b.CurrentBalance.String())
	out, err := scanBank(row)
	if isUniqueViolation(err) {
		return finance.Bank{}, errs.ErrExists
	}
	return out, err
}

func (s *Store) UpdateBank(ctx context.Context, userID, bankID uuid.UUID, name string, initial decimal.Decimal) (finance.Bank, error) {
	// current_balance shifts by the initial delta so historical transaction
	// sums stay consistent with the edit.
	row := s.pool.QueryRow(ctx,
		`UPDATE banks
		 SET name = $3,
		     current_balance = current_balance + ($4::numeric - initial_balance),
		     initial_balance = $4
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+bankColumns,
		bankID, userID, name, initial.String())
	out, err := scanBank(row)
	if isUniqueViolation(err) {
		return finance.Bank{}, errs.ErrExists
	}
	return out, err
}

func (s *Store) DeleteBank(ctx context.Context, userID, bankID uuid.UUID) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT id FROM banks WHERE id = $1 AND user_id = $2 FOR UPDATE`, bankID, userID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		if err != nil {
			return err
		}
		referenced, err := s.refExistsTx(ctx, tx, userID, finance.BankRef(bankID))
		if err != nil {
			return err
		}
		if referenced {
			return errs.ErrAccountReferenced
		}
		_, err = tx.Exec(ctx, `DELETE FROM banks WHERE id = $1`, bankID)
		return err
	})
}

// --- Credit cards ---

const cardColumns = `id, user_id, name, credit_limit::text, used_limit::text, created_at`

func scanCard(row pgx.Row) (finance.CreditCard, error) {
	var c finance.CreditCard
	var limit, used string
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &limit, &used, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.CreditCard{}, errs.ErrNotFound
	}
	if err != nil {
		return finance.CreditCard{}, err
	}
	if c.CreditLimit, err = parseDecimal(limit); err != nil {
		return finance.CreditCard{}, err
	}
	if c.UsedLimit, err = parseDecimal(used); err != nil {
		return finance.CreditCard{}, err
	}
	return c, nil
}

func (s *Store) ListCards(ctx context.Context, userID uuid.UUID) ([]finance.CreditCard, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM credit_cards WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]finance.CreditCard, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Card(ctx context.Context, userID, cardID uuid.UUID) (finance.CreditCard, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM credit_cards WHERE id = $1 AND user_id = $2`, cardID, userID)
	return scanCard(row)
}

func (s *Store) CreateCard(ctx context.Context, c finance.CreditCard) (finance.CreditCard, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO credit_cards (id, user_id, name, credit_limit, used_limit)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+cardColumns,
		c.ID, c.UserID, c.Name, c.CreditLimit.String(), c.UsedLimit.String())
	out, err := scanCard(row)
	if isUniqueViolation(err) {
		return finance.CreditCard{}, errs.ErrExists
	}
	return out, err
}

func (s *Store) UpdateCard(ctx context.Context, userID, cardID uuid.UUID, name string, limit decimal.Decimal) (finance.CreditCard, error) {
	var out finance.CreditCard
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		current, err := scanCard(tx.QueryRow(ctx,
			`SELECT `+cardColumns+` FROM credit_cards WHERE id = $1 AND user_id = $2 FOR UPDATE`, cardID, userID))
		if err != nil {
			return err
		}
		if limit.LessThan(current.UsedLimit) {
			return errs.ErrLimitBelowUsed
		}
		out, err = scanCard(tx.QueryRow(ctx,
			`UPDATE credit_cards SET name = $3, credit_limit = $4 WHERE id = $1 AND user_id = $2
			 RETURNING `+cardColumns,
			cardID, userID, name, limit.String()))
		return err
	})
	if isUniqueViolation(err) {
		return finance.CreditCard{}, errs.ErrExists
	}
	if err != nil {
		return finance.CreditCard{}, err
	}
	return out, nil
}

func (s *Store) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT id FROM credit_cards WHERE id = $1 AND user_id = $2 FOR UPDATE`, cardID, userID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		if err != nil {
			return err
		}
		referenced, err := s.refExistsTx(ctx, tx, userID, finance.CardRef(cardID))
		if err != nil {
			return err
		}
		if referenced {
			return errs.ErrAccountReferenced
		}
		_, err = tx.Exec(ctx, `DELETE FROM credit_cards WHERE id = $1`, cardID)
		return err
	})
}

// --- Cash ---

const cashColumns = `user_id, balance::text, initial_balance::text, updated_at`

func scanCash(row pgx.Row) (finance.CashBalance, error) {
	var cb finance.CashBalance
	var balance, initial string
	err := row.Scan(&cb.UserID, &balance, &initial, &cb.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.CashBalance{}, errs.ErrNotFound
	}
	if err != nil {
		return finance.CashBalance{}, err
	}
	if cb.Balance, err = parseDecimal(balance); err != nil {
		return finance.CashBalance{}, err
	}
	if cb.InitialBalance, err = parseDecimal(initial); err != nil {
		return finance.CashBalance{}, err
	}
	return cb, nil
}

func (s *Store) Cash(ctx context.Context, userID uuid.UUID) (finance.CashBalance, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+cashColumns+` FROM cash_balances WHERE user_id = $1`, userID)
	return scanCash(row)
}

func (s *Store) UpsertCash(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) (finance.CashBalance, error) {
	// The first write pins initial_balance; later writes only move balance.
	row := s.pool.QueryRow(ctx,
		`INSERT INTO cash_balances (user_id, balance, initial_balance, updated_at)
		 VALUES ($1, $2, $2, now())
		 ON CONFLICT (user_id)
		 DO UPDATE SET balance = EXCLUDED.balance, updated_at = now()
		 RETURNING `+cashColumns,
		userID, balance.String())
	return scanCash(row)
}

// --- Income ---

const incomeColumns = `id, user_id, source, amount::text, credited_to_type, credited_to_id, date`

func scanIncome(row pgx.Row) (finance.IncomeEntry, error) {
	var e finance.IncomeEntry
	var amount, refType string
	var refID *uuid.UUID
	err := row.Scan(&e.ID, &e.UserID, &e.Source, &amount, &refType, &refID, &e.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.IncomeEntry{}, errs.ErrNotFound
	}
	if err != nil {
		return finance.IncomeEntry{}, err
	}
	if e.Amount, err = parseDecimal(amount); err != nil {
		return finance.IncomeEntry{}, err
	}
	e.CreditedTo = refFromColumns(refType, refID)
	return e, nil
}

func (s *Store) Income(ctx context.Context, userID, incomeID uuid.UUID) (finance.IncomeEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+incomeColumns+` FROM income_entries WHERE id = $1 AND user_id = $2`, incomeID, userID)
	return scanIncome(row)
}

func (s *Store) ListIncome(ctx context.Context, userID uuid.UUID, month time.Month, year int) ([]finance.IncomeEntry, error) {
	from, to := finance.MonthRange(month, year)
	rows, err := s.pool.Query(ctx,
		`SELECT `+incomeColumns+` FROM income_entries
		 WHERE user_id = $1 AND date >= $2 AND date < $3
		 ORDER BY date, id`,
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]finance.IncomeEntry, 0)
	for rows.Next() {
		e, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CreateIncome(ctx context.Context, e finance.IncomeEntry) (finance.IncomeEntry, error) {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.applyIncomeTx(ctx, tx, e, false); err != nil {
			return err
		}
		return s.insertIncomeTx(ctx, tx, e)
	})
	if err != nil {
		return finance.IncomeEntry{}, err
	}
	return e, nil
}

func (s *Store) UpdateIncome(ctx context.Context, old, updated finance.IncomeEntry) (finance.IncomeEntry, error) {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.applyIncomeTx(ctx, tx, old, true); err != nil {
			return err
		}
		if err := s.applyIncomeTx(ctx, tx, updated, false); err != nil {
			return err
		}
		refType, refID := refToColumns(updated.CreditedTo)
		tag, err := tx.Exec(ctx,
			`UPDATE income_entries
			 SET source = $3, amount = $4, credited_to_type = $5, credited_to_id = $6, date = $7
			 WHERE id = $1 AND user_id = $2`,
			updated.ID, updated.UserID, updated.Source, updated.Amount.String(), refType, refID, updated.Date)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return finance.IncomeEntry{}, err
	}
	return updated, nil
}

func (s *Store) DeleteIncome(ctx context.Context, e finance.IncomeEntry) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.applyIncomeTx(ctx, tx, e, true); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM income_entries WHERE id = $1 AND user_id = $2`, e.ID, e.UserID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

func (s *Store) insertIncomeTx(ctx context.Context, tx pgx.Tx, e finance.IncomeEntry) error {
	refType, refID := refToColumns(e.CreditedTo)
	_, err := tx.Exec(ctx,
		`INSERT INTO income_entries (id, user_id, source, amount, credited_to_type, credited_to_id, date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.Source, e.Amount.String(), refType, refID, e.Date)
	return err
}

// applyIncomeTx credits (or, reversed, debits) the referenced account,
// locking its row for the rest of the transaction.
func (s *Store) applyIncomeTx(ctx context.Context, tx pgx.Tx, e finance.IncomeEntry, reverse bool) error {
	amount := e.Amount
	if reverse {
		amount = amount.Neg()
	}
	switch e.CreditedTo.Kind {
	case finance.RefBank:
		tag, err := tx.Exec(ctx,
			`UPDATE banks SET current_balance = current_balance + $3
			 WHERE id = $1 AND user_id = $2`,
			e.CreditedTo.ID, e.UserID, amount.String())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return nil
	case finance.RefCash:
		_, err := tx.Exec(ctx,
			`INSERT INTO cash_balances (user_id, balance, initial_balance, updated_at)
			 VALUES ($1, $2, 0, now())
			 ON CONFLICT (user_id)
			 DO UPDATE SET balance = cash_balances.balance + EXCLUDED.balance, updated_at = now()`,
			e.UserID, amount.String())
		return err
	}
	return errs.ErrInvalid
}

// --- Expenses ---

const expenseColumns = `id, user_id, title, amount::text, paid_with_type, paid_with_id, date`

func scanExpense(row pgx.Row) (finance.Expense, error) {
	var e finance.Expense
	var amount, refType string
	var refID *uuid.UUID
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &amount, &refType, &refID, &e.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.Expense{}, errs.ErrNotFound
	}
	if err != nil {
		return finance.Expense{}, err
	}
	if e.Amount, err = parseDecimal(amount); err != nil {
		return finance.Expense{}, err
	}
	e.PaidWith = refFromColumns(refType, refID)
	return e, nil
}

func (s *Store) Expense(ctx context.Context, userID, expenseID uuid.UUID) (finance.Expense, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND user_id = $2`, expenseID, userID)
	return scanExpense(row)
}

func (s *Store) ListExpenses(ctx context.Context, userID uuid.UUID, month time.Month, year int) ([]finance.Expense, error) {
	from, to := finance.MonthRange(month, year)
	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE user_id = $1 AND date >= $2 AND date < $3
		 ORDER BY date, id`,
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]finance.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CreateExpense(ctx context.Context, e finance.Expense, applyBalance bool) (finance.Expense, error) {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if applyBalance {
			if err := s.applyExpenseTx(ctx, tx, e, false, true); err != nil {
				return err
			}
		} else if err := s.checkExpenseRefTx(ctx, tx, e); err != nil {
			return err
		}
		return s.insertExpenseTx(ctx, tx, e)
	})
	if err != nil {
		return finance.Expense{}, err
	}
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, old, updated finance.Expense, applyBalance bool) (finance.Expense, error) {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if applyBalance {
			if err := s.applyExpenseTx(ctx, tx, old, true, false); err != nil {
				return err
			}
			if err := s.applyExpenseTx(ctx, tx, updated, false, true); err != nil {
				return err
			}
		} else if err := s.checkExpenseRefTx(ctx, tx, updated); err != nil {
			return err
		}
		refType, refID := refToColumns(updated.PaidWith)
		tag, err := tx.Exec(ctx,
			`UPDATE expenses
			 SET title = $3, amount = $4, paid_with_type = $5, paid_with_id = $6, date = $7
			 WHERE id = $1 AND user_id = $2`,
			updated.ID, updated.UserID, updated.Title, updated.Amount.String(), refType, refID, updated.Date)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return finance.Expense{}, err
	}
	return updated, nil
}

func (s *Store) DeleteExpense(ctx context.Context, e finance.Expense, applyBalance bool) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if applyBalance {
			if err := s.applyExpenseTx(ctx, tx, e, true, false); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM expenses WHERE id = $1 AND user_id = $2`, e.ID, e.UserID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

func (s *Store) insertExpenseTx(ctx context.Context, tx pgx.Tx, e finance.Expense) error {
	refType, refID := refToColumns(e.PaidWith)
	_, err := tx.Exec(ctx,
		`INSERT INTO expenses (id, user_id, title, amount, paid_with_type, paid_with_id, date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.Title, e.Amount.String(), refType, refID, e.Date)
	return err
}

// checkExpenseRefTx verifies the referenced account exists for users whose
// tracking option leaves balances untouched.
func (s *Store) checkExpenseRefTx(ctx context.Context, tx pgx.Tx, e finance.Expense) error {
	var query string
	switch e.PaidWith.Kind {
	case finance.RefBank:
		query = `SELECT id FROM banks WHERE id = $1 AND user_id = $2`
	case finance.RefCreditCard:
		query = `SELECT id FROM credit_cards WHERE id = $1 AND user_id = $2`
	case finance.RefCash:
		return nil
	default:
		return errs.ErrInvalid
	}
	var id uuid.UUID
	err := tx.QueryRow(ctx, query, e.PaidWith.ID, e.UserID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

// applyExpenseTx debits (or, reversed, credits) the referenced account.
// Balance and limit validation runs only on forward application, against the
// row locked in this transaction.
func (s *Store) applyExpenseTx(ctx context.Context, tx pgx.Tx, e finance.Expense, reverse, validate bool) error {
	switch e.PaidWith.Kind {
	case finance.RefBank:
		var current string
		err := tx.QueryRow(ctx,
			`SELECT current_balance::text FROM banks WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			e.PaidWith.ID, e.UserID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		if err != nil {
			return err
		}
		balance, err := parseDecimal(current)
		if err != nil {
			return err
		}
		if validate && balance.LessThan(e.Amount) {
			return errs.ErrInsufficientBankBalance
		}
		amount := e.Amount.Neg()
		if reverse {
			amount = e.Amount
		}
		_, err = tx.Exec(ctx,
			`UPDATE banks SET current_balance = current_balance + $2 WHERE id = $1`,
			e.PaidWith.ID, amount.String())
		return err
	case finance.RefCash:
		var balanceText string
		err := tx.QueryRow(ctx,
			`SELECT balance::text FROM cash_balances WHERE user_id = $1 FOR UPDATE`,
			e.UserID).Scan(&balanceText)
		balance := decimal.Zero
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// treated as a zero balance; reversing into a missing row
			// materializes it below
		case err != nil:
			return err
		default:
			if balance, err = parseDecimal(balanceText); err != nil {
				return err
			}
		}
		if validate && balance.LessThan(e.Amount) {
			return errs.ErrInsufficientCashBalance
		}
		amount := e.Amount.Neg()
		if reverse {
			amount = e.Amount
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO cash_balances (user_id, balance, initial_balance, updated_at)
			 VALUES ($1, $2, 0, now())
			 ON CONFLICT (user_id)
			 DO UPDATE SET balance = cash_balances.balance + EXCLUDED.balance, updated_at = now()`,
			e.UserID, amount.String())
		return err
	case finance.RefCreditCard:
		var limitText, usedText string
		err := tx.QueryRow(ctx,
			`SELECT credit_limit::text, used_limit::text FROM credit_cards
			 WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			e.PaidWith.ID, e.UserID).Scan(&limitText, &usedText)
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		if err != nil {
			return err
		}
		limit, err := parseDecimal(limitText)
		if err != nil {
			return err
		}
		used, err := parseDecimal(usedText)
		if err != nil {
			return err
		}
		if validate && limit.Sub(used).LessThan(e.Amount) {
			return errs.ErrInsufficientCreditLimit
		}
		amount := e.Amount
		if reverse {
			amount = amount.Neg()
		}
		_, err = tx.Exec(ctx,
			`UPDATE credit_cards SET used_limit = used_limit + $2 WHERE id = $1`,
			e.PaidWith.ID, amount.String())
		return err
	}
	return errs.ErrInvalid
}

// --- Aggregation reads ---

func (s *Store) SumIncome(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	return s.sumRange(ctx,
		`SELECT COALESCE(SUM(amount), 0)::text FROM income_entries
		 WHERE user_id = $1 AND date >= $2 AND date < $3`,
		userID, from, to)
}

func (s *Store) SumExpenses(ctx context.Context, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	return s.sumRange(ctx,
		`SELECT COALESCE(SUM(amount), 0)::text FROM expenses
		 WHERE user_id = $1 AND date >= $2 AND date < $3`,
		userID, from, to)
}

func (s *Store) sumRange(ctx context.Context, query string, userID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var text string
	if err := s.pool.QueryRow(ctx, query, userID, from, to).Scan(&text); err != nil {
		return decimal.Zero, err
	}
	return parseDecimal(text)
}

func (s *Store) SumIncomeByRef(ctx context.Context, userID uuid.UUID, ref finance.AccountRef, before time.Time) (decimal.Decimal, error) {
	refType, refID := refToColumns(ref)
	var text string
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::text FROM income_entries
		 WHERE user_id = $1 AND credited_to_type = $2 AND credited_to_id IS NOT DISTINCT FROM $3 AND date < $4`,
		userID, refType, refID, before).Scan(&text)
	if err != nil {
		return decimal.Zero, err
	}
	return parseDecimal(text)
}

func (s *Store) SumExpensesByRef(ctx context.Context, userID uuid.UUID, ref finance.AccountRef, before time.Time) (decimal.Decimal, error) {
	refType, refID := refToColumns(ref)
	var text string
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::text FROM expenses
		 WHERE user_id = $1 AND paid_with_type = $2 AND paid_with_id IS NOT DISTINCT FROM $3 AND date < $4`,
		userID, refType, refID, before).Scan(&text)
	if err != nil {
		return decimal.Zero, err
	}
	return parseDecimal(text)
}

// refExistsTx reports whether any transaction references the account.
func (s *Store) refExistsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, ref finance.AccountRef) (bool, error) {
	refType, refID := refToColumns(ref)
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM income_entries
		   WHERE user_id = $1 AND credited_to_type = $2 AND credited_to_id IS NOT DISTINCT FROM $3
		 ) OR EXISTS (
		   SELECT 1 FROM expenses
		   WHERE user_id = $1 AND paid_with_type = $2 AND paid_with_id IS NOT DISTINCT FROM $3
		 )`,
		userID, refType, refID).Scan(&exists)
	return exists, err
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func refToColumns(ref finance.AccountRef) (string, *uuid.UUID) {
	if ref.Kind == finance.RefCash {
		return string(ref.Kind), nil
	}
	id := ref.ID
	return string(ref.Kind), &id
}

func refFromColumns(refType string, refID *uuid.UUID) finance.AccountRef {
	ref := finance.AccountRef{Kind: finance.RefKind(refType)}
	if refID != nil {
		ref.ID = *refID
	}
	return ref
}
