// Package httpapi wires the HTTP surface of the finance tracker.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/fintrack/internal/service/account"
	"github.com/tinoosan/fintrack/internal/service/auth"
	"github.com/tinoosan/fintrack/internal/service/summary"
	"github.com/tinoosan/fintrack/internal/service/transaction"
	"github.com/tinoosan/fintrack/internal/session"
)

// Options tune the server surface without touching the services.
type Options struct {
	// Login attempts allowed per client IP.
	LoginRatePerMinute int
	LoginRateBurst     int
	// SecureCookies marks session cookies Secure (on behind TLS).
	SecureCookies bool
}

// Server wires handlers and middleware using Chi.
type Server struct {
	authSvc    auth.Service
	accountSvc account.Service
	txSvc      transaction.Service
	summarySvc summary.Service
	sessions   *session.Manager
	store      Store
	opts       Options
	log        *slog.Logger
	rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(store Store, sessions *session.Manager, logger *slog.Logger, opts Options) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		authSvc:    auth.New(store, store),
		accountSvc: account.New(store, store),
		txSvc:      transaction.New(store, store),
		summarySvc: summary.New(store),
		sessions:   sessions,
		store:      store,
		opts:       opts,
		log:        logger,
		rt:         r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	loginLimiter := newIPLimiter(s.opts.LoginRatePerMinute, s.opts.LoginRateBurst)

	// Auth (public)
	s.rt.With(requireJSON).Post("/auth/register", s.register)
	s.rt.With(requireJSON, loginLimiter.middleware).Post("/auth/login", s.login)
	s.rt.Post("/auth/logout", s.logout)
	s.rt.Get("/auth/security-question", s.securityQuestion)
	s.rt.With(requireJSON).Post("/auth/recover", s.recoverPassword)

	// Everything below needs a valid session.
	s.rt.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/auth/me", s.me)
		r.With(requireJSON).Put("/auth/tracking-option", s.updateTracking)

		// Accounts
		r.With(requireJSON).Post("/accounts/banks", s.createBank)
		r.Get("/accounts/banks", s.listBanks)
		r.With(requireJSON).Put("/accounts/banks/{id}", s.updateBank)
		r.Delete("/accounts/banks/{id}", s.deleteBank)
		r.With(requireJSON).Post("/accounts/cards", s.createCard)
		r.Get("/accounts/cards", s.listCards)
		r.With(requireJSON).Put("/accounts/cards/{id}", s.updateCard)
		r.Delete("/accounts/cards/{id}", s.deleteCard)
		r.Get("/accounts/cash", s.getCash)
		r.With(requireJSON).Put("/accounts/cash", s.setCash)

		// Transactions
		r.With(requireJSON).Post("/transactions/income", s.createIncome)
		r.Get("/transactions/income", s.listIncome)
		r.With(requireJSON).Put("/transactions/income/{id}", s.updateIncome)
		r.Delete("/transactions/income/{id}", s.deleteIncome)
		r.With(requireJSON).Post("/transactions/expenses", s.createExpense)
		r.Get("/transactions/expenses", s.listExpenses)
		r.With(requireJSON).Put("/transactions/expenses/{id}", s.updateExpense)
		r.Delete("/transactions/expenses/{id}", s.deleteExpense)

		// Summary
		r.Get("/summary/monthly", s.monthlySummary)
	})

	// Ops (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
