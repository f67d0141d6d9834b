package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/tinoosan/fintrack/internal/config"
	"github.com/tinoosan/fintrack/internal/finance"
	"github.com/tinoosan/fintrack/internal/httpapi"
	"github.com/tinoosan/fintrack/internal/session"
	"github.com/tinoosan/fintrack/internal/storage/memory"
	pgstore "github.com/tinoosan/fintrack/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	sessions := session.New(cfg.SessionSecret, cfg.SessionTTL)
	opts := httpapi.Options{
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		LoginRateBurst:     cfg.LoginRateBurst,
		SecureCookies:      strings.TrimSpace(os.Getenv("SECURE_COOKIES")) == "1",
	}

	var handler http.Handler
	var closeFn func()

	if cfg.DatabaseURL != "" {
		// Use Postgres store when DATABASE_URL is provided
		if err := pgstore.Migrate(cfg.DatabaseURL); err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = func() { pg.Close() }
		handler = httpapi.New(pg, sessions, logger, opts).Handler()
		logger.Info("storage backend: postgres")
	} else {
		// Default to in-memory store with a small dev seed
		store := memory.New()
		if dev := strings.ToLower(strings.TrimSpace(os.Getenv("DEV_SEED"))); dev == "1" || dev == "true" || dev == "yes" {
			seedDev(store, logger)
		}
		handler = httpapi.New(store, sessions, logger, opts).Handler()
		logger.Info("storage backend: memory")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fintrack service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// seedDev creates a demo user with one bank so local clients have something
// to log into.
func seedDev(store *memory.Store, l *slog.Logger) {
	passwordHash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	answerHash, _ := bcrypt.GenerateFromPassword([]byte("demo"), bcrypt.DefaultCost)
	user := finance.User{
		ID:                 uuid.New(),
		Email:              "demo@example.com",
		PasswordHash:       string(passwordHash),
		SecurityQuestion:   "Favourite word?",
		SecurityAnswerHash: string(answerHash),
		Tracking:           finance.TrackingBoth,
		CreatedAt:          time.Now().UTC(),
	}
	store.SeedUser(user)
	bank := finance.Bank{
		ID:             uuid.New(),
		UserID:         user.ID,
		Name:           "DEMO BANK",
		InitialBalance: decimal.NewFromInt(1000),
		CurrentBalance: decimal.NewFromInt(1000),
		CreatedAt:      time.Now().UTC(),
	}
	store.SeedBank(bank)
	l.Info("DEV seed (memory)", "user_id", user.ID.String(), "bank_id", bank.ID.String())
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("email: %s\npassword: password123\nbank_id: %s\n", user.Email, bank.ID.String())
	fmt.Println("==================================================")
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if strings.ToLower(strings.TrimSpace(cfg.LogFormat)) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
