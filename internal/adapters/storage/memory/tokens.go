package memory

import (
	"context"
	"sync"
	"time"

	"pet-adoption/internal/domain/passwordreset"
)

// ResetTokenStore mantiene tokens de reset; Consume es atómico bajo el mutex.
type ResetTokenStore struct {
	mu     sync.Mutex
	tokens map[string]passwordreset.Token
	now    func() time.Time
}

func NewResetTokenStore() *ResetTokenStore {
	return &ResetTokenStore{
		tokens: make(map[string]passwordreset.Token),
		now:    time.Now,
	}
}

func (s *ResetTokenStore) Save(ctx context.Context, t passwordreset.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()
	s.tokens[t.Token] = t
	return nil
}

func (s *ResetTokenStore) Get(ctx context.Context, token string) (passwordreset.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return passwordreset.Token{}, passwordreset.ErrTokenNotFound
	}
	return t, nil
}

func (s *ResetTokenStore) Consume(ctx context.Context, token string) (passwordreset.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return passwordreset.Token{}, passwordreset.ErrTokenNotFound
	}
	delete(s.tokens, token)
	return t, nil
}

// purgeLocked descarta expirados para que el mapa no crezca sin límite.
func (s *ResetTokenStore) purgeLocked() {
	now := s.now()
	for k, t := range s.tokens {
		if t.Expired(now) {
			delete(s.tokens, k)
		}
	}
}

// RevocationStore implementa auth.TokenRevoker en memoria.
type RevocationStore struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewRevocationStore() *RevocationStore {
	return &RevocationStore{
		until: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.until {
		if !now.Before(exp) {
			delete(s.until, k)
		}
	}
	s.until[tokenID] = until
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.until[tokenID]
	if !ok {
		return false, nil
	}
	return s.now().Before(exp), nil
}
