package memory

import (
	"context"
	"sort"
	"sync"

	"pet-adoption/internal/domain/messaging"
)

type messageRepo struct {
	mu   sync.RWMutex
	byID map[string]messaging.Message
}

func NewMessageRepo() messaging.Repository {
	return &messageRepo{
		byID: make(map[string]messaging.Message),
	}
}

func (r *messageRepo) Create(ctx context.Context, m messaging.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[m.ID]; exists {
		return ErrAlreadyExists
	}
	r.byID[m.ID] = m
	return nil
}

func (r *messageRepo) GetByID(ctx context.Context, id string) (messaging.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return messaging.Message{}, ErrNotFound
	}
	return m, nil
}

func (r *messageRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *messageRepo) ListThread(ctx context.Context, petID, userA, userB string) ([]messaging.Message, error) {
	return r.list(func(m messaging.Message) bool {
		if m.PetID != petID {
			return false
		}
		return (m.SenderID == userA && m.ReceiverID == userB) ||
			(m.SenderID == userB && m.ReceiverID == userA)
	}), nil
}

func (r *messageRepo) ListByPets(ctx context.Context, petIDs []string) ([]messaging.Message, error) {
	set := make(map[string]struct{}, len(petIDs))
	for _, id := range petIDs {
		set[id] = struct{}{}
	}
	return r.list(func(m messaging.Message) bool {
		_, ok := set[m.PetID]
		return ok
	}), nil
}

func (r *messageRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, m := range r.byID {
		if m.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *messageRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, m := range r.byID {
		if m.SenderID == userID || m.ReceiverID == userID {
			delete(r.byID, id)
		}
	}
	return nil
}

// list ordena por created_at asc; desempate por id para que el orden sea estable.
func (r *messageRepo) list(keep func(messaging.Message) bool) []messaging.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]messaging.Message, 0)
	for _, m := range r.byID {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
