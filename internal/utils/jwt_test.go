package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyTokens(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret")
	userID := uuid.New()

	access, refresh, err := m.GenerateTokens(userID)
	require.NoError(t, err)
	assert.NotEqual(t, access.JTI, refresh.JTI)

	claims, err := m.VerifyAccess(access.Token)
	require.NoError(t, err)
	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, access.JTI, claims.ID)

	_, err = m.VerifyRefresh(refresh.Token)
	assert.NoError(t, err)

	// secrets are not interchangeable
	_, err = m.VerifyAccess(refresh.Token)
	assert.Error(t, err)
	_, err = m.VerifyRefresh(access.Token)
	assert.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret")
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	access, _, err := m.GenerateTokens(uuid.New())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyAccess(access.Token)
	assert.Error(t, err)
}

func TestNewOrderNumber(t *testing.T) {
	n := NewOrderNumber(time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC))
	assert.Regexp(t, `^JC-20260307-[0-9A-F]{6}$`, n)
}

func TestCleanList(t *testing.T) {
	assert.Equal(t, []string{"Diamonds", "pearls"}, CleanList([]string{" Diamonds ", "", "pearls", "diamonds", "Pearls"}))
	assert.Empty(t, CleanList(nil))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Ruby & Co", CleanText("  Ruby & Co \x00"))
	assert.Equal(t, "line one\nline two", CleanText("line one\nline two\x07"))
}
