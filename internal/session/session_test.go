package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/fintrack/internal/errs"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	m := New(testSecret, time.Hour)
	id := uuid.New()

	token, expires, err := m.Issue(id)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	got, err := m.Verify(token)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestVerifyRejectsTampering(t *testing.T) {
	m := New(testSecret, time.Hour)
	token, _, err := m.Issue(uuid.New())
	require.NoError(t, err)

	_, err = m.Verify(token + "x")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = m.Verify("")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	other := New("another-secret-another-secret-00", time.Hour)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := New(testSecret, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.Issue(uuid.New())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestCookies(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	c := Cookie("tok", expires, true)
	require.Equal(t, CookieName, c.Name)
	require.True(t, c.HttpOnly)
	require.True(t, c.Secure)

	cleared := ClearCookie()
	require.Equal(t, CookieName, cleared.Name)
	require.Negative(t, cleared.MaxAge)
}
