package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/finance"
	"github.com/tinoosan/fintrack/internal/service/auth"
	"github.com/tinoosan/fintrack/internal/storage/memory"
)

func registerInput() auth.RegisterInput {
	return auth.RegisterInput{
		Email:            "User@Example.com",
		Password:         "correct horse",
		SecurityQuestion: "First pet?",
		SecurityAnswer:   "Rex",
		Tracking:         finance.TrackingBoth,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := auth.New(store, store)

	u, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	require.Equal(t, "user@example.com", u.Email, "emails are lower-cased")
	require.NotEqual(t, "correct horse", u.PasswordHash)

	got, err := svc.Login(ctx, "user@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = svc.Login(ctx, "user@example.com", "wrong")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, errs.ErrUnauthorized, "unknown emails must not be distinguishable")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := auth.New(store, store)

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	in := registerInput()
	in.Email = "USER@example.com"
	_, err = svc.Register(ctx, in)
	require.ErrorIs(t, err, errs.ErrExists)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := auth.New(store, store)

	cases := []struct {
		name   string
		mutate func(*auth.RegisterInput)
	}{
		{"bad email", func(in *auth.RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *auth.RegisterInput) { in.Password = "short" }},
		{"missing question", func(in *auth.RegisterInput) { in.SecurityQuestion = " " }},
		{"missing answer", func(in *auth.RegisterInput) { in.SecurityAnswer = "" }},
		{"bad tracking", func(in *auth.RegisterInput) { in.Tracking = "everything" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := registerInput()
			tc.mutate(&in)
			_, err := svc.Register(ctx, in)
			require.ErrorIs(t, err, errs.ErrInvalid)
		})
	}
}

func TestPasswordRecovery(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := auth.New(store, store)

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	q, err := svc.SecurityQuestion(ctx, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, "First pet?", q)

	err = svc.ResetPassword(ctx, "user@example.com", "goldfish", "new password 1")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	// The answer check is case and whitespace insensitive.
	err = svc.ResetPassword(ctx, "user@example.com", "  REX ", "new password 1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "user@example.com", "correct horse")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = svc.Login(ctx, "user@example.com", "new password 1")
	require.NoError(t, err)
}

func TestUpdateTracking(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := auth.New(store, store)

	u, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	got, err := svc.UpdateTracking(ctx, u.ID, finance.TrackingExpenses)
	require.NoError(t, err)
	require.Equal(t, finance.TrackingExpenses, got.Tracking)

	_, err = svc.UpdateTracking(ctx, u.ID, "everything")
	require.ErrorIs(t, err, errs.ErrInvalid)
}
