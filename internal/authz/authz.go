// Package authz centraliza la resolución del actor autenticado y el chequeo de
// capabilities por rol. Los handlers no comparan strings de rol directamente.
package authz

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pet-adoption/internal/middleware"
	"pet-adoption/internal/ports/capabilities"
)

var (
	ErrUnauthenticated = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
)

// Actor es el usuario autenticado, ya validado contra el store (activo, rol actual).
type Actor struct {
	UserID   string
	Username string
	Role     string
}

// AccountLookup resuelve un user ID en un Actor activo.
// Debe devolver error si el usuario no existe o está inactivo.
type AccountLookup interface {
	ActorOf(ctx context.Context, userID string) (Actor, error)
}

type Guard struct {
	accounts AccountLookup
	caps     capabilities.CapabilitiesResolver
}

func NewGuard(accounts AccountLookup, caps capabilities.CapabilitiesResolver) *Guard {
	return &Guard{accounts: accounts, caps: caps}
}

// Authenticate exige claims válidos y una cuenta activa.
func (g *Guard) Authenticate(r *http.Request) (Actor, error) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return Actor{}, ErrUnauthenticated
	}
	a, err := g.accounts.ActorOf(r.Context(), claims.UserID)
	if err != nil {
		return Actor{}, ErrUnauthenticated
	}
	return a, nil
}

// Optional devuelve el actor si hay sesión; ok=false si es anónimo.
func (g *Guard) Optional(r *http.Request) (Actor, bool) {
	a, err := g.Authenticate(r)
	if err != nil {
		return Actor{}, false
	}
	return a, true
}

// Require autentica y exige la capability.
func (g *Guard) Require(r *http.Request, c capabilities.Capability) (Actor, error) {
	a, err := g.Authenticate(r)
	if err != nil {
		return Actor{}, err
	}
	if !g.Can(r.Context(), a, c) {
		return Actor{}, ErrForbidden
	}
	return a, nil
}

func (g *Guard) Can(ctx context.Context, a Actor, c capabilities.Capability) bool {
	return Allowed(ctx, g.caps, a, c)
}

func (g *Guard) Resolver() capabilities.CapabilitiesResolver {
	return g.caps
}

// Allowed es el chequeo usado también por los services de dominio.
// Un error del resolver se trata como denegación.
func Allowed(ctx context.Context, caps capabilities.CapabilitiesResolver, a Actor, c capabilities.Capability) bool {
	if caps == nil {
		return false
	}
	ok, err := caps.HasFeature(ctx, capabilities.CapabilityCheck{
		UserID:     a.UserID,
		Role:       a.Role,
		Capability: c,
	})
	return err == nil && ok
}

// WriteError responde 401/403 para errores de este paquete.
// Devuelve false si err no es de autenticación/autorización.
func WriteError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		return false
	}
	return true
}
