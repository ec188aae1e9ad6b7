package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-adoption/internal/domain/users"
)

type userRepo struct {
	mu   sync.RWMutex
	byID map[string]users.Account
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID: make(map[string]users.Account),
	}
}

func (r *userRepo) Create(ctx context.Context, a users.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.User.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[a.User.ID]; exists {
		return ErrAlreadyExists
	}
	for _, x := range r.byID {
		if strings.EqualFold(x.User.Username, a.User.Username) {
			return users.ErrConflict
		}
	}
	r.byID[a.User.ID] = a
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return users.Account{}, ErrNotFound
	}
	return a, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (users.Account, error) {
	return r.find(func(a users.Account) bool { return strings.EqualFold(a.User.Username, username) })
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.Account, error) {
	return r.find(func(a users.Account) bool { return a.User.Email != "" && strings.EqualFold(a.User.Email, email) })
}

func (r *userRepo) find(match func(users.Account) bool) (users.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byID {
		if match(a) {
			return a, nil
		}
	}
	return users.Account{}, ErrNotFound
}

func (r *userRepo) List(ctx context.Context) ([]users.Account, error) {
	return r.list(func(users.Account) bool { return true }), nil
}

func (r *userRepo) ListByRole(ctx context.Context, role users.Role) ([]users.Account, error) {
	return r.list(func(a users.Account) bool { return a.Profile.Role == role }), nil
}

func (r *userRepo) list(keep func(users.Account) bool) []users.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.Account, 0)
	for _, a := range r.byID {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].User.CreatedAt.Before(out[j].User.CreatedAt) ||
			(out[i].User.CreatedAt.Equal(out[j].User.CreatedAt) && out[i].User.Username < out[j].User.Username)
	})
	return out
}

func (r *userRepo) Update(ctx context.Context, a users.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[a.User.ID]
	if !ok {
		return ErrNotFound
	}
	// rol y estado no se tocan por Update
	a.Profile.Role = cur.Profile.Role
	a.Profile.Status = cur.Profile.Status
	a.User.IsActive = cur.User.IsActive
	r.byID[a.User.ID] = a
	return nil
}

func (r *userRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.User.IsActive = active
	a.User.UpdatedAt = at
	a.Profile.Status = users.StatusFor(active)
	r.byID[id] = a
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
