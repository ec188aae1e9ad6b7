package messaging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrSelfChat     = errors.New("cannot chat with yourself about your own pet")
)

const MaxContentLen = 4000

// PetLookup es lo que messaging necesita de pets.
type PetLookup interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	ListBySeller(ctx context.Context, sellerUserID string) ([]pets.Pet, error)
}

// UserLookup valida la existencia de la contraparte.
type UserLookup interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	repo  Repository
	pets  PetLookup
	users UserLookup
	log   logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, petLookup PetLookup, userLookup UserLookup, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:  repo,
		pets:  petLookup,
		users: userLookup,
		log:   log.With(map[string]any{"module": "messaging"}),
		now:   time.Now,
	}
}

// StartChat resuelve la contraparte para un interesado: el dueño del aviso.
func (s *Service) StartChat(ctx context.Context, petID, userID string) (string, error) {
	p, err := s.pet(ctx, petID)
	if err != nil {
		return "", err
	}
	if p.OwnerUserID == userID {
		return "", ErrSelfChat
	}
	return p.OwnerUserID, nil
}

// Open valida el acceso al hilo y lo devuelve.
func (s *Service) Open(ctx context.Context, petID, userID, otherID string) ([]Message, error) {
	if _, err := s.authorize(ctx, petID, userID, otherID); err != nil {
		return nil, err
	}
	return s.repo.ListThread(ctx, petID, userID, otherID)
}

func (s *Service) ListThread(ctx context.Context, petID, userA, userB string) ([]Message, error) {
	return s.repo.ListThread(ctx, petID, userA, userB)
}

func (s *Service) Post(ctx context.Context, petID, senderID, receiverID, content string) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > MaxContentLen {
		return Message{}, ErrInvalidInput
	}
	if _, err := s.authorize(ctx, petID, senderID, receiverID); err != nil {
		return Message{}, err
	}

	m := Message{
		ID:         uuid.NewString(),
		PetID:      petID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return Message{}, err
	}

	s.log.Debug("message posted", map[string]any{"pet_id": petID, "message_id": m.ID})
	return m, nil
}

// Delete solo borra si requesterID es el remitente; si no, ErrForbidden y el mensaje queda.
func (s *Service) Delete(ctx context.Context, messageID, requesterID string) (Message, error) {
	m, err := s.repo.GetByID(ctx, strings.TrimSpace(messageID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Message{}, ErrNotFound
		}
		return Message{}, fmt.Errorf("get message %s: %w", messageID, err)
	}
	if m.SenderID != requesterID {
		s.log.Warn("message delete denied", map[string]any{"message_id": m.ID, "requester_id": requesterID})
		return Message{}, ErrForbidden
	}
	if err := s.repo.Delete(ctx, m.ID); err != nil {
		return Message{}, err
	}
	return m, nil
}

// ListSellerThreads agrupa los mensajes de las mascotas del vendedor por (mascota, contraparte).
func (s *Service) ListSellerThreads(ctx context.Context, sellerID string) ([]ConversationSummary, error) {
	owned, err := s.pets.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return []ConversationSummary{}, nil
	}

	names := make(map[string]string, len(owned))
	ids := make([]string, 0, len(owned))
	for _, p := range owned {
		names[p.ID] = p.Name
		ids = append(ids, p.ID)
	}

	msgs, err := s.repo.ListByPets(ctx, ids)
	if err != nil {
		return nil, err
	}

	type key struct{ pet, counterpart string }
	byKey := map[key]*ConversationSummary{}
	for _, m := range msgs {
		var counterpart string
		switch sellerID {
		case m.SenderID:
			counterpart = m.ReceiverID
		case m.ReceiverID:
			counterpart = m.SenderID
		default:
			continue
		}

		k := key{m.PetID, counterpart}
		cs, ok := byKey[k]
		if !ok {
			cs = &ConversationSummary{PetID: m.PetID, PetName: names[m.PetID], CounterpartID: counterpart}
			byKey[k] = cs
		}
		cs.MessageCount++
		if m.CreatedAt.After(cs.LastMessageAt) {
			cs.LastMessageAt = m.CreatedAt
		}
	}

	out := make([]ConversationSummary, 0, len(byKey))
	for _, cs := range byKey {
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].PetID+out[i].CounterpartID < out[j].PetID+out[j].CounterpartID
		}
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

// DeleteByPet es el hook de cascada de pets.
func (s *Service) DeleteByPet(ctx context.Context, petID string) error {
	return s.repo.DeleteByPet(ctx, petID)
}

// DeleteByUser es el hook de cascada de users.
func (s *Service) DeleteByUser(ctx context.Context, userID string) error {
	return s.repo.DeleteByUser(ctx, userID)
}

// authorize: participantes distintos, contraparte existente y uno de los dos es el dueño.
func (s *Service) authorize(ctx context.Context, petID, userID, otherID string) (pets.Pet, error) {
	userID = strings.TrimSpace(userID)
	otherID = strings.TrimSpace(otherID)
	if userID == "" || otherID == "" || userID == otherID {
		return pets.Pet{}, ErrInvalidInput
	}

	p, err := s.pet(ctx, petID)
	if err != nil {
		return pets.Pet{}, err
	}

	if s.users != nil {
		ok, err := s.users.Exists(ctx, otherID)
		if err != nil {
			return pets.Pet{}, err
		}
		if !ok {
			return pets.Pet{}, ErrNotFound
		}
	}

	if p.OwnerUserID != userID && p.OwnerUserID != otherID {
		return pets.Pet{}, ErrForbidden
	}
	return p, nil
}

func (s *Service) pet(ctx context.Context, petID string) (pets.Pet, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		switch {
		case errors.Is(err, pets.ErrInvalidInput):
			return pets.Pet{}, ErrInvalidInput
		case errors.Is(err, pets.ErrNotFound):
			return pets.Pet{}, ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}
