package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-adoption/internal/domain/pets"
)

type petRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID: make(map[string]pets.Pet),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return ErrAlreadyExists
	}
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[p.ID]
	if !exists {
		return ErrNotFound
	}
	// la adopción solo cambia por SetAdopted
	p.IsAdopted, p.BuyerUserID = cur.IsAdopted, cur.BuyerUserID
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) SetAdopted(ctx context.Context, id string, buyerUserID *string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.byID[id]
	if !exists {
		return false, ErrNotFound
	}
	if p.IsAdopted {
		return false, nil
	}
	p.IsAdopted = true
	if buyerUserID != nil {
		buyer := *buyerUserID
		p.BuyerUserID = &buyer
	}
	p.UpdatedAt = at
	r.byID[id] = p
	return true, nil
}

func (r *petRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *petRepo) ListApproved(ctx context.Context, limit int) ([]pets.Pet, error) {
	out := r.list(func(p pets.Pet) bool { return p.IsApproved })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *petRepo) ListPending(ctx context.Context) ([]pets.Pet, error) {
	return r.list(func(p pets.Pet) bool { return !p.IsApproved }), nil
}

func (r *petRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	return r.list(func(p pets.Pet) bool { return p.OwnerUserID == ownerUserID }), nil
}

func (r *petRepo) ListBySeller(ctx context.Context, sellerUserID string) ([]pets.Pet, error) {
	return r.list(func(p pets.Pet) bool { return p.SellerUserID == sellerUserID }), nil
}

// list ordena por created_at desc (más nuevos primero), desempate por id.
func (r *petRepo) list(keep func(pets.Pet) bool) []pets.Pet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
