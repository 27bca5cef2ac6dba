package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/approval-service/internal/domain"
)

// ErrTokenMismatch indicates a valid token presented against the wrong
// ticket or decision endpoint.
var ErrTokenMismatch = errors.New("token does not match ticket and decision")

// CallbackTokenManager signs and validates the tokens embedded in
// approve/reject links. A token binds one ticket to one decision so a mailed
// link cannot be replayed against the other endpoint or another ticket.
type CallbackTokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewCallbackTokenManager builds a new manager. A non-positive TTL disables
// token expiry; the ticket TTL sweep still bounds how long a link is useful.
func NewCallbackTokenManager(secret string, ttlMinutes int) *CallbackTokenManager {
	var ttl time.Duration
	if ttlMinutes > 0 {
		ttl = time.Duration(ttlMinutes) * time.Minute
	}
	return &CallbackTokenManager{secret: []byte(secret), ttl: ttl}
}

// Enabled reports whether link signing is configured.
func (tm *CallbackTokenManager) Enabled() bool {
	return tm != nil && len(tm.secret) > 0
}

// CallbackClaims describes the signed link payload.
type CallbackClaims struct {
	TicketID string              `json:"ticket_id"`
	Decision domain.TicketStatus `json:"decision"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a token for one ticket/decision pair.
func (tm *CallbackTokenManager) GenerateToken(ticketID string, decision domain.TicketStatus) (string, error) {
	claims := &CallbackClaims{
		TicketID: ticketID,
		Decision: decision,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  ticketID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if tm.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(tm.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// VerifyToken validates the token and checks it was minted for the given
// ticket and decision.
func (tm *CallbackTokenManager) VerifyToken(tokenStr, ticketID string, decision domain.TicketStatus) error {
	parsed, err := jwt.ParseWithClaims(tokenStr, &CallbackClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return err
	}

	claims, ok := parsed.Claims.(*CallbackClaims)
	if !ok || !parsed.Valid {
		return errors.New("invalid token claims")
	}
	if claims.TicketID != ticketID || claims.Decision != decision {
		return ErrTokenMismatch
	}
	return nil
}
