// Package auth implements registration, login, security-question password
// recovery, and tracking-option changes. Password and security-answer hashes
// use bcrypt; the service never stores or returns plaintext secrets.
package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/finance"
)

// Repo defines read operations needed by the service.
type Repo interface {
	User(ctx context.Context, userID uuid.UUID) (finance.User, error)
	UserByEmail(ctx context.Context, email string) (finance.User, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateUser(ctx context.Context, u finance.User) (finance.User, error)
	UpdateUser(ctx context.Context, u finance.User) (finance.User, error)
}

// RegisterInput carries everything collected at sign-up.
type RegisterInput struct {
	Email            string
	Password         string
	SecurityQuestion string
	SecurityAnswer   string
	Tracking         finance.TrackingOption
}

// Service exposes the auth operations used by the HTTP layer.
type Service interface {
	Register(ctx context.Context, in RegisterInput) (finance.User, error)
	Login(ctx context.Context, email, password string) (finance.User, error)
	User(ctx context.Context, userID uuid.UUID) (finance.User, error)
	SecurityQuestion(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, answer, newPassword string) error
	UpdateTracking(ctx context.Context, userID uuid.UUID, opt finance.TrackingOption) (finance.User, error)
}

type service struct {
	repo   Repo
	writer Writer
	cost   int
	now    func() time.Time
}

// New constructs the auth service with the default bcrypt cost.
func New(repo Repo, writer Writer) Service {
	return &service{repo: repo, writer: writer, cost: bcrypt.DefaultCost, now: time.Now}
}

func (s *service) Register(ctx context.Context, in RegisterInput) (finance.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return finance.User{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return finance.User{}, err
	}
	if strings.TrimSpace(in.SecurityQuestion) == "" {
		return finance.User{}, errs.Invalid("security question is required")
	}
	if strings.TrimSpace(in.SecurityAnswer) == "" {
		return finance.User{}, errs.Invalid("security answer is required")
	}
	if !in.Tracking.Valid() {
		return finance.User{}, errs.Invalid("tracking option must be income, expenses or both")
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return finance.User{}, err
	}
	answerHash, err := bcrypt.GenerateFromPassword([]byte(normalizeAnswer(in.SecurityAnswer)), s.cost)
	if err != nil {
		return finance.User{}, err
	}

	u := finance.User{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       string(passHash),
		SecurityQuestion:   strings.TrimSpace(in.SecurityQuestion),
		SecurityAnswerHash: string(answerHash),
		Tracking:           in.Tracking,
		CreatedAt:          s.now().UTC(),
	}
	return s.writer.CreateUser(ctx, u)
}

func (s *service) Login(ctx context.Context, email, password string) (finance.User, error) {
	norm, err := normalizeEmail(email)
	if err != nil {
		return finance.User{}, errs.ErrUnauthorized
	}
	u, err := s.repo.UserByEmail(ctx, norm)
	if errors.Is(err, errs.ErrNotFound) {
		return finance.User{}, errs.ErrUnauthorized
	}
	if err != nil {
		return finance.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return finance.User{}, errs.ErrUnauthorized
	}
	return u, nil
}

func (s *service) User(ctx context.Context, userID uuid.UUID) (finance.User, error) {
	if userID == uuid.Nil {
		return finance.User{}, errs.ErrInvalid
	}
	return s.repo.User(ctx, userID)
}

func (s *service) SecurityQuestion(ctx context.Context, email string) (string, error) {
	norm, err := normalizeEmail(email)
	if err != nil {
		return "", errs.ErrNotFound
	}
	u, err := s.repo.UserByEmail(ctx, norm)
	if err != nil {
		return "", err
	}
	return u.SecurityQuestion, nil
}

func (s *service) ResetPassword(ctx context.Context, email, answer, newPassword string) error {
	norm, err := normalizeEmail(email)
	if err != nil {
		return errs.ErrUnauthorized
	}
	u, err := s.repo.UserByEmail(ctx, norm)
	if errors.Is(err, errs.ErrNotFound) {
		return errs.ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.SecurityAnswerHash), []byte(normalizeAnswer(answer))) != nil {
		return errs.ErrUnauthorized
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	_, err = s.writer.UpdateUser(ctx, u)
	return err
}

func (s *service) UpdateTracking(ctx context.Context, userID uuid.UUID, opt finance.TrackingOption) (finance.User, error) {
	if userID == uuid.Nil {
		return finance.User{}, errs.ErrInvalid
	}
	if !opt.Valid() {
		return finance.User{}, errs.Invalid("tracking option must be income, expenses or both")
	}
	u, err := s.repo.User(ctx, userID)
	if err != nil {
		return finance.User{}, err
	}
	u.Tracking = opt
	return s.writer.UpdateUser(ctx, u)
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", errs.Invalid("email is required")
	}
	parsed, err := mail.ParseAddress(trimmed)
	if err != nil || parsed.Address == "" {
		return "", errs.Invalid("invalid email address")
	}
	return strings.ToLower(parsed.Address), nil
}

// normalizeAnswer makes the security answer check forgiving of case and
// surrounding whitespace.
func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return errs.Invalid("password is required")
	}
	length := utf8.RuneCountInString(password)
	if length < 8 {
		return errs.Invalid("password must be at least 8 characters")
	}
	if length > 128 {
		return errs.Invalid("password must be 128 characters or fewer")
	}
	return nil
}
