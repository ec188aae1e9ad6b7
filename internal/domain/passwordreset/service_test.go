package passwordreset

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/mail"
)

type testStore struct {
	mu     sync.Mutex
	tokens map[string]Token
}

func newTestStore() *testStore { return &testStore{tokens: map[string]Token{}} }

func (s *testStore) Save(ctx context.Context, t Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.Token] = t
	return nil
}

func (s *testStore) Get(ctx context.Context, token string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return Token{}, ErrTokenNotFound
	}
	return t, nil
}

func (s *testStore) Consume(ctx context.Context, token string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return Token{}, ErrTokenNotFound
	}
	delete(s.tokens, token)
	return t, nil
}

type fakeAccounts struct {
	byEmail   map[string]users.Account
	passwords map[string]string
}

func (f *fakeAccounts) GetByEmail(ctx context.Context, email string) (users.Account, error) {
	a, ok := f.byEmail[email]
	if !ok {
		return users.Account{}, users.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) SetPassword(ctx context.Context, userID, pw string) error {
	f.passwords[userID] = pw
	return nil
}

type captureMailer struct{ last mail.Message }

func (m *captureMailer) Send(ctx context.Context, msg mail.Message) error {
	m.last = msg
	return nil
}

type fixture struct {
	svc      *Service
	store    *testStore
	accounts *fakeAccounts
	mailer   *captureMailer
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: newTestStore(),
		accounts: &fakeAccounts{
			byEmail: map[string]users.Account{
				"ana@example.com": {User: users.User{ID: "u1", Email: "ana@example.com"}},
			},
			passwords: map[string]string{},
		},
		mailer: &captureMailer{},
		clock:  time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.store, f.accounts, f.mailer, Options{From: "noreply@x", BaseURL: "https://adopt.example", TTL: time.Hour}, nil)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) issuedToken(t *testing.T) string {
	t.Helper()
	if err := f.svc.Forgot(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("Forgot: %v", err)
	}
	i := strings.LastIndex(f.mailer.last.Body, "/")
	return f.mailer.last.Body[i+1:]
}

func TestForgot_SendsLinkWithToken(t *testing.T) {
	f := newFixture(t)

	tok := f.issuedToken(t)

	if len(tok) != TokenLength {
		t.Fatalf("expected %d-char token, got %d", TokenLength, len(tok))
	}
	if !strings.Contains(f.mailer.last.Body, "https://adopt.example/reset-password/") {
		t.Fatalf("unexpected body: %s", f.mailer.last.Body)
	}
	if f.mailer.last.Kind != mail.KindPasswordReset || f.mailer.last.To[0] != "ana@example.com" {
		t.Fatalf("unexpected mail: %+v", f.mailer.last)
	}
}

func TestForgot_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Forgot(context.Background(), "nobody@example.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReset_SingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.issuedToken(t)

	if err := f.svc.Check(ctx, tok); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := f.svc.Reset(ctx, tok, "brand-new-pass"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if f.accounts.passwords["u1"] != "brand-new-pass" {
		t.Fatalf("password not updated")
	}
	if err := f.svc.Reset(ctx, tok, "another-pass"); err != ErrInvalidToken {
		t.Fatalf("second use: expected ErrInvalidToken, got %v", err)
	}
}

func TestReset_ShortPasswordKeepsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.issuedToken(t)

	if err := f.svc.Reset(ctx, tok, "short"); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := f.svc.Check(ctx, tok); err != nil {
		t.Fatalf("token must survive invalid input: %v", err)
	}
}

func TestReset_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.issuedToken(t)

	f.clock = f.clock.Add(2 * time.Hour)

	if err := f.svc.Check(ctx, tok); err != ErrInvalidToken {
		t.Fatalf("Check expired: expected ErrInvalidToken, got %v", err)
	}
	if err := f.svc.Reset(ctx, tok, "brand-new-pass"); err != ErrInvalidToken {
		t.Fatalf("Reset expired: expected ErrInvalidToken, got %v", err)
	}
}

func TestRandomToken_Alphabet(t *testing.T) {
	tok, err := randomToken()
	if err != nil {
		t.Fatalf("randomToken: %v", err)
	}
	for _, c := range tok {
		if !strings.ContainsRune(tokenAlphabet, c) {
			t.Fatalf("unexpected char %q", c)
		}
	}
}
