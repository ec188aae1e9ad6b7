package rolepolicy

import (
	"context"
	"errors"
	"strings"

	"pet-adoption/internal/ports/capabilities"
)

var ErrCapabilityRequired = errors.New("capability required")

// Policy mapea rol -> capabilities. Es la única fuente de verdad de permisos por rol.
type Policy map[string]map[capabilities.Capability]struct{}

// Default devuelve la política estándar de la plataforma.
func Default() Policy {
	base := []capabilities.Capability{
		capabilities.Chat,
		capabilities.RequestsCreate,
	}
	user := append([]capabilities.Capability{
		capabilities.PetsCreate,
		capabilities.PetsAdopt,
	}, base...)
	doctor := append([]capabilities.Capability{
		capabilities.ClearanceDecide,
	}, base...)
	admin := append([]capabilities.Capability{
		capabilities.ModerationPets,
		capabilities.ModerationUsers,
		capabilities.DoctorsManage,
		capabilities.FeedbackRead,
		capabilities.RequestsDecideAny,
		capabilities.ClearanceDecide,
	}, user...)

	return Policy{
		"user":   set(user),
		"doctor": set(doctor),
		"admin":  set(admin),
	}
}

func set(in []capabilities.Capability) map[capabilities.Capability]struct{} {
	out := make(map[capabilities.Capability]struct{}, len(in))
	for _, c := range in {
		out[c] = struct{}{}
	}
	return out
}

// Resolver implementa capabilities.CapabilitiesResolver sin llamadas externas.
type Resolver struct {
	policy Policy
}

func NewResolver(p Policy) *Resolver {
	if p == nil {
		p = Default()
	}
	return &Resolver{policy: p}
}

func (r *Resolver) HasFeature(ctx context.Context, in capabilities.CapabilityCheck) (bool, error) {
	if strings.TrimSpace(string(in.Capability)) == "" {
		return false, ErrCapabilityRequired
	}
	caps, ok := r.policy[strings.ToLower(strings.TrimSpace(in.Role))]
	if !ok {
		return false, nil
	}
	_, ok = caps[in.Capability]
	return ok, nil
}

// Resolve devuelve las capabilities de un rol (para /me y UI).
func (r *Resolver) Resolve(ctx context.Context, role string) map[string]bool {
	out := map[string]bool{}
	for c := range r.policy[strings.ToLower(strings.TrimSpace(role))] {
		out[string(c)] = true
	}
	return out
}
