package httpapi

import (
	"github.com/tinoosan/fintrack/internal/service/account"
	"github.com/tinoosan/fintrack/internal/service/auth"
	"github.com/tinoosan/fintrack/internal/service/summary"
	"github.com/tinoosan/fintrack/internal/service/transaction"
)

// Store is the full storage surface the HTTP server needs. The service
// interfaces overlap (User, ListBanks, ListCards, Cash) with identical
// signatures, so one store value satisfies all of them.
type Store interface {
	auth.Repo
	auth.Writer
	account.Repo
	account.Writer
	transaction.Repo
	transaction.Writer
	summary.Repo
}
