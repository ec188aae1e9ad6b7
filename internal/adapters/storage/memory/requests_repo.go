package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pet-adoption/internal/domain/requests"
)

type requestRepo struct {
	mu   sync.RWMutex
	byID map[string]requests.Request
}

func NewRequestRepo() requests.Repository {
	return &requestRepo{
		byID: make(map[string]requests.Request),
	}
}

// Create chequea la unicidad de Pending bajo el mismo lock que inserta.
func (r *requestRepo) Create(ctx context.Context, req requests.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[req.ID]; exists {
		return ErrAlreadyExists
	}
	if req.IsPending() {
		for _, x := range r.byID {
			if x.IsPending() && x.Kind == req.Kind && x.PetID == req.PetID && x.RequesterID == req.RequesterID {
				return requests.ErrDuplicatePending
			}
		}
	}
	r.byID[req.ID] = req
	return nil
}

func (r *requestRepo) GetByID(ctx context.Context, id string) (requests.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.byID[id]
	if !ok {
		return requests.Request{}, ErrNotFound
	}
	return req, nil
}

// Transition compara y cambia el estado bajo el lock de escritura.
func (r *requestRepo) Transition(ctx context.Context, id string, from, to requests.Status, decidedBy string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if req.Status != from {
		return false, nil
	}
	req.Status = to
	req.UpdatedAt = at
	if to == requests.StatusPending {
		req.DecidedAt, req.DecidedBy = nil, nil
	} else {
		decidedAt, by := at, decidedBy
		req.DecidedAt, req.DecidedBy = &decidedAt, &by
	}
	r.byID[id] = req
	return true, nil
}

func (r *requestRepo) AssignDoctor(ctx context.Context, id, doctorID string, onlyUnassigned bool, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if !req.IsPending() || (onlyUnassigned && req.DoctorID != nil) {
		return false, nil
	}
	doc := doctorID
	req.DoctorID = &doc
	req.UpdatedAt = at
	r.byID[id] = req
	return true, nil
}

func (r *requestRepo) FindOpen(ctx context.Context, kind requests.Kind, petID, requesterID string) (requests.Request, bool, error) {
	return r.findLatest(kind, petID, requesterID, true)
}

func (r *requestRepo) FindLatest(ctx context.Context, kind requests.Kind, petID, requesterID string) (requests.Request, bool, error) {
	return r.findLatest(kind, petID, requesterID, false)
}

func (r *requestRepo) findLatest(kind requests.Kind, petID, requesterID string, pendingOnly bool) (requests.Request, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		winner requests.Request
		found  bool
	)
	for _, x := range r.byID {
		if x.Kind != kind || x.PetID != petID || x.RequesterID != requesterID {
			continue
		}
		if pendingOnly && !x.IsPending() {
			continue
		}
		if !found || x.CreatedAt.After(winner.CreatedAt) {
			winner, found = x, true
		}
	}
	return winner, found, nil
}

func (r *requestRepo) List(ctx context.Context, f requests.Filter) ([]requests.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var petSet map[string]struct{}
	if f.PetIDs != nil {
		petSet = make(map[string]struct{}, len(f.PetIDs))
		for _, id := range f.PetIDs {
			petSet[id] = struct{}{}
		}
	}

	out := make([]requests.Request, 0)
	for _, x := range r.byID {
		if f.Kind != "" && x.Kind != f.Kind {
			continue
		}
		if f.RequesterID != "" && x.RequesterID != f.RequesterID {
			continue
		}
		if petSet != nil {
			if _, ok := petSet[x.PetID]; !ok {
				continue
			}
		}
		if f.ForDoctor != "" {
			if x.Kind != requests.KindClearance {
				continue
			}
			if x.DoctorID != nil && *x.DoctorID != f.ForDoctor {
				continue
			}
		}
		out = append(out, x)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *requestRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, x := range r.byID {
		if x.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}

// DeleteByUser replica las FKs de Postgres: requester CASCADE, doctor SET NULL.
func (r *requestRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, x := range r.byID {
		switch {
		case x.RequesterID == userID:
			delete(r.byID, id)
		case x.DoctorID != nil && *x.DoctorID == userID:
			x.DoctorID = nil
			r.byID[id] = x
		}
	}
	return nil
}
