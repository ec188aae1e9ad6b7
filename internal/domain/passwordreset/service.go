package passwordreset

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/mail"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("email not registered")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMailFailed   = errors.New("mail delivery failed")
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Accounts es lo que el reset necesita de users.
type Accounts interface {
	GetByEmail(ctx context.Context, email string) (users.Account, error)
	SetPassword(ctx context.Context, userID, newPassword string) error
}

type Options struct {
	From    string
	BaseURL string // sin "/" final
	TTL     time.Duration
}

type Service struct {
	store    TokenStore
	accounts Accounts
	mailer   mail.Mailer
	opts     Options
	log      logger.Logger
	now      func() time.Time
	newToken func() (string, error)
}

func NewService(store TokenStore, accounts Accounts, mailer mail.Mailer, opts Options, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	return &Service{
		store:    store,
		accounts: accounts,
		mailer:   mailer,
		opts:     opts,
		log:      log.With(map[string]any{"module": "passwordreset"}),
		now:      time.Now,
		newToken: randomToken,
	}
}

// Forgot emite un token y envía el link. Email desconocido => ErrNotFound.
func (s *Service) Forgot(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidInput
	}

	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	tok, err := s.newToken()
	if err != nil {
		return err
	}
	t := Token{Token: tok, UserID: a.User.ID, ExpiresAt: s.now().Add(s.opts.TTL)}
	if err := s.store.Save(ctx, t); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password/%s", s.opts.BaseURL, tok)
	err = s.mailer.Send(ctx, mail.Message{
		Kind:    mail.KindPasswordReset,
		From:    s.opts.From,
		To:      []string{a.User.Email},
		Subject: "Password Reset Request",
		Body:    "Click the link to reset your password: " + link,
	})
	if err != nil {
		s.log.Error("reset mail failed", map[string]any{"user_id": a.User.ID, "error": err})
		return fmt.Errorf("%w: %v", ErrMailFailed, err)
	}

	s.log.Info("reset token issued", map[string]any{"user_id": a.User.ID})
	return nil
}

// Check valida el token sin consumirlo.
func (s *Service) Check(ctx context.Context, token string) error {
	t, err := s.store.Get(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if t.Expired(s.now()) {
		return ErrInvalidToken
	}
	return nil
}

// Reset consume el token y fija la nueva contraseña. Un segundo uso da ErrInvalidToken.
func (s *Service) Reset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < users.MinPasswordLen {
		return ErrInvalidInput
	}

	t, err := s.store.Consume(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if t.Expired(s.now()) {
		return ErrInvalidToken
	}

	if err := s.accounts.SetPassword(ctx, t.UserID, newPassword); err != nil {
		return err
	}

	s.log.Info("password reset", map[string]any{"user_id": t.UserID})
	return nil
}

func randomToken() (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	var b strings.Builder
	b.Grow(TokenLength)
	for i := 0; i < TokenLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate reset token: %w", err)
		}
		b.WriteByte(tokenAlphabet[n.Int64()])
	}
	return b.String(), nil
}
