package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pet-adoption/internal/domain/passwordreset"
)

// ResetTokenStore guarda tokens de reset con TTL nativo de Redis.
type ResetTokenStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client, now: time.Now}
}

type storedToken struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *ResetTokenStore) Save(ctx context.Context, t passwordreset.Token) error {
	ttl := t.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(storedToken{UserID: t.UserID, ExpiresAt: t.ExpiresAt})
	if err != nil {
		return fmt.Errorf("failed to encode reset token: %w", err)
	}
	if err := s.client.Set(ctx, resetTokenKey(t.Token), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

func (s *ResetTokenStore) Get(ctx context.Context, token string) (passwordreset.Token, error) {
	raw, err := s.client.Get(ctx, resetTokenKey(token)).Bytes()
	return decodeToken(token, raw, err)
}

// Consume usa GETDEL: solo un llamador obtiene el valor.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (passwordreset.Token, error) {
	raw, err := s.client.GetDel(ctx, resetTokenKey(token)).Bytes()
	return decodeToken(token, raw, err)
}

func decodeToken(token string, raw []byte, err error) (passwordreset.Token, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return passwordreset.Token{}, passwordreset.ErrTokenNotFound
		}
		return passwordreset.Token{}, fmt.Errorf("failed to get reset token: %w", err)
	}
	var st storedToken
	if err := json.Unmarshal(raw, &st); err != nil {
		return passwordreset.Token{}, fmt.Errorf("failed to decode reset token: %w", err)
	}
	return passwordreset.Token{Token: token, UserID: st.UserID, ExpiresAt: st.ExpiresAt}, nil
}

// RevocationStore implementa auth.TokenRevoker; la key vive hasta que el JWT expira.
type RevocationStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client, now: time.Now}
}

func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKey(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return n > 0, nil
}
