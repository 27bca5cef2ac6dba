package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/approval-service/internal/domain"
)

func TestCallbackTokenRoundTrip(t *testing.T) {
	tm := NewCallbackTokenManager("test-secret", 30)

	token, err := tm.GenerateToken("t1", domain.TicketStatusApproved)
	require.NoError(t, err)

	assert.NoError(t, tm.VerifyToken(token, "t1", domain.TicketStatusApproved))
}

func TestCallbackTokenBindsDecision(t *testing.T) {
	tm := NewCallbackTokenManager("test-secret", 30)

	token, err := tm.GenerateToken("t1", domain.TicketStatusApproved)
	require.NoError(t, err)

	// An approve link must not work against the reject endpoint.
	err = tm.VerifyToken(token, "t1", domain.TicketStatusRejected)
	assert.ErrorIs(t, err, ErrTokenMismatch)
}

func TestCallbackTokenBindsTicket(t *testing.T) {
	tm := NewCallbackTokenManager("test-secret", 30)

	token, err := tm.GenerateToken("t1", domain.TicketStatusApproved)
	require.NoError(t, err)

	err = tm.VerifyToken(token, "t2", domain.TicketStatusApproved)
	assert.ErrorIs(t, err, ErrTokenMismatch)
}

func TestCallbackTokenRejectsWrongSecret(t *testing.T) {
	tm := NewCallbackTokenManager("test-secret", 30)
	other := NewCallbackTokenManager("other-secret", 30)

	token, err := tm.GenerateToken("t1", domain.TicketStatusApproved)
	require.NoError(t, err)

	assert.Error(t, other.VerifyToken(token, "t1", domain.TicketStatusApproved))
}

func TestCallbackTokenRejectsGarbage(t *testing.T) {
	tm := NewCallbackTokenManager("test-secret", 30)
	assert.Error(t, tm.VerifyToken("not-a-token", "t1", domain.TicketStatusApproved))
}

func TestCallbackTokenEnabled(t *testing.T) {
	assert.False(t, NewCallbackTokenManager("", 0).Enabled())
	assert.True(t, NewCallbackTokenManager("secret", 0).Enabled())
}
