package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pet-adoption/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("jwt secret not configured")
	ErrTokenEmpty    = errors.New("token is empty")
	ErrInvalidToken  = errors.New("invalid token")
	ErrRevoked       = errors.New("token revoked")
)

const defaultIssuer = "pet-adoption"

type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Manager emite y verifica tokens HS256. Implementa auth.TokenIssuer y auth.AuthVerifier.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	revoker auth.TokenRevoker
	now     func() time.Time
}

// NewManager: revoker puede ser nil (sin logout server-side).
func NewManager(cfg Config, revoker auth.TokenRevoker) (*Manager, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, ErrNotConfigured
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	iss := strings.TrimSpace(cfg.Issuer)
	if iss == "" {
		iss = defaultIssuer
	}
	return &Manager{
		secret:  []byte(secret),
		ttl:     ttl,
		issuer:  iss,
		revoker: revoker,
		now:     time.Now,
	}, nil
}

func (m *Manager) Issue(ctx context.Context, userID, username, role string) (string, auth.Claims, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	jti := uuid.NewString()

	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", auth.Claims{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, auth.Claims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		TokenID:   jti,
		ExpiresAt: exp.Truncate(time.Second),
	}, nil
}

func (m *Manager) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if strings.TrimSpace(claims.UserID) == "" || claims.ID == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing user id or jti", ErrInvalidToken)
	}

	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return auth.Claims{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return auth.Claims{}, ErrRevoked
		}
	}

	return auth.Claims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
