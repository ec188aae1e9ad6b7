package passwordreset

import (
	"context"
	"errors"
	"time"
)

const TokenLength = 50

// ErrTokenNotFound lo devuelven los stores cuando el token no existe (o ya fue consumido).
var ErrTokenNotFound = errors.New("reset token not found")

type Token struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

func (t Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenStore guarda tokens de un solo uso.
type TokenStore interface {
	Save(ctx context.Context, t Token) error
	Get(ctx context.Context, token string) (Token, error)
	// Consume lee y borra en una sola operación: dos llamadas concurrentes no pueden ganar ambas.
	Consume(ctx context.Context, token string) (Token, error)
}
