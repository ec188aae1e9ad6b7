package auth

import (
	"context"
	"time"
)

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer emite tokens de sesión tras un login exitoso.
type TokenIssuer interface {
	Issue(ctx context.Context, userID, username, role string) (token string, claims Claims, err error)
}

// TokenRevoker guarda los token IDs invalidados por logout hasta su expiración.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
