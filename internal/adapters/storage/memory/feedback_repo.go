package memory

import (
	"context"
	"sync"

	"pet-adoption/internal/domain/feedback"
)

// feedbackRepo guarda en orden de llegada; las listas devuelven más nuevos primero.
type feedbackRepo struct {
	mu        sync.RWMutex
	feedbacks []feedback.Feedback
	contacts  []feedback.Contact
}

func NewFeedbackRepo() feedback.Repository {
	return &feedbackRepo{}
}

func (r *feedbackRepo) CreateFeedback(ctx context.Context, f feedback.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedbacks = append(r.feedbacks, f)
	return nil
}

func (r *feedbackRepo) ListFeedback(ctx context.Context) ([]feedback.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]feedback.Feedback, 0, len(r.feedbacks))
	for i := len(r.feedbacks) - 1; i >= 0; i-- {
		out = append(out, r.feedbacks[i])
	}
	return out, nil
}

func (r *feedbackRepo) CreateContact(ctx context.Context, c feedback.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts = append(r.contacts, c)
	return nil
}

func (r *feedbackRepo) ListContacts(ctx context.Context) ([]feedback.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]feedback.Contact, 0, len(r.contacts))
	for i := len(r.contacts) - 1; i >= 0; i-- {
		out = append(out, r.contacts[i])
	}
	return out, nil
}
