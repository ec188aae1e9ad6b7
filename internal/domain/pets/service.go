package pets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
	ErrForbidden    = errors.New("forbidden")
	// ErrAlreadyAdopted: la mascota ya tiene comprador; Adopt no lo reemplaza.
	ErrAlreadyAdopted = errors.New("pet already adopted")
)

// DeleteHook borra datos dependientes de una mascota (mensajes, solicitudes).
type DeleteHook func(ctx context.Context, petID string) error

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time

	hooksMu sync.RWMutex
	hooks   []DeleteHook
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"module": "pets"}),
		now:  time.Now,
	}
}

// OnDelete registra un hook que corre antes de borrar la mascota.
func (s *Service) OnDelete(h DeleteHook) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, h)
}

type CreateInput struct {
	Name        string
	Type        string
	Breed       string
	Age         int
	Gender      string
	Description string
	ImageURL    string
}

func (s *Service) Create(ctx context.Context, sellerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(sellerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Age < 0 {
		return Pet{}, ErrInvalidInput
	}
	typ, ok := ParseType(in.Type)
	if !ok {
		return Pet{}, ErrInvalidInput
	}
	gender, ok := ParseGender(in.Gender)
	if !ok {
		return Pet{}, ErrInvalidInput
	}

	breed := strings.TrimSpace(in.Breed)
	if breed == "" {
		breed = DefaultBreed
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = DefaultDescription
	}

	var image *string
	if v := strings.TrimSpace(in.ImageURL); v != "" {
		if u, err := url.ParseRequestURI(v); err != nil || u.Host == "" {
			return Pet{}, ErrInvalidInput
		}
		image = &v
	}

	now := s.now()
	p := Pet{
		ID:           uuid.NewString(),
		OwnerUserID:  sellerUserID,
		SellerUserID: sellerUserID,
		Name:         name,
		Type:         typ,
		Breed:        breed,
		Age:          in.Age,
		Gender:       gender,
		Description:  desc,
		ImageURL:     image,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}

	s.log.Info("pet listed", map[string]any{"pet_id": p.ID, "seller_id": sellerUserID})
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, fmt.Errorf("get pet %s: %w", id, err)
	}
	return p, nil
}

// Detail aplica visibilidad: un aviso oculto responde ErrNotFound para no filtrar su existencia.
func (s *Service) Detail(ctx context.Context, petID, viewerID string, moderator bool) (Pet, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if !p.VisibleTo(viewerID, moderator) {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListApproved(ctx context.Context, limit int) ([]Pet, error) {
	return s.repo.ListApproved(ctx, limit)
}

func (s *Service) ListPending(ctx context.Context) ([]Pet, error) {
	return s.repo.ListPending(ctx)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

func (s *Service) ListBySeller(ctx context.Context, sellerUserID string) ([]Pet, error) {
	return s.repo.ListBySeller(ctx, sellerUserID)
}

func (s *Service) Approve(ctx context.Context, petID string) (Pet, error) {
	return s.SetApproval(ctx, petID, true)
}

// SetApproval fija is_approved (approve-pet / update-pet-status).
func (s *Service) SetApproval(ctx context.Context, petID string, approved bool) (Pet, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	p.IsApproved = approved
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	s.log.Info("pet approval changed", map[string]any{"pet_id": p.ID, "approved": approved})
	return p, nil
}

// Reject borra el aviso y sus dependientes. Es destructivo, no un cambio de estado.
func (s *Service) Reject(ctx context.Context, petID string) (RejectResult, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return RejectResult{}, err
	}

	s.hooksMu.RLock()
	hooks := append([]DeleteHook(nil), s.hooks...)
	s.hooksMu.RUnlock()

	for _, h := range hooks {
		if err := h(ctx, p.ID); err != nil {
			return RejectResult{}, fmt.Errorf("cascade delete for pet %s: %w", p.ID, err)
		}
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return RejectResult{}, err
	}

	s.log.Info("pet rejected and deleted", map[string]any{"pet_id": p.ID})
	return RejectResult{Deleted: true, PetID: p.ID, Name: p.Name}, nil
}

// MarkAdopted solo lo puede hacer el vendedor del aviso. Es idempotente.
func (s *Service) MarkAdopted(ctx context.Context, petID, sellerUserID string) (Pet, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if p.SellerUserID != sellerUserID {
		return Pet{}, ErrForbidden
	}
	if p.IsAdopted {
		return p, nil
	}
	now := s.now()
	ok, err := s.repo.SetAdopted(ctx, p.ID, nil, now)
	if err != nil {
		return Pet{}, err
	}
	if !ok {
		// otro proceso la adoptó entre la lectura y el update
		return s.GetByID(ctx, p.ID)
	}
	p.IsAdopted = true
	p.UpdatedAt = now
	return p, nil
}

// Adopt registra al comprador y marca adoptado. Lo invoca requests al aprobar.
// Si la mascota ya estaba adoptada devuelve ErrAlreadyAdopted sin tocar el comprador.
func (s *Service) Adopt(ctx context.Context, petID, buyerUserID string) (Pet, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if p.IsAdopted {
		return Pet{}, ErrAlreadyAdopted
	}

	buyer := buyerUserID
	now := s.now()
	ok, err := s.repo.SetAdopted(ctx, p.ID, &buyer, now)
	if err != nil {
		return Pet{}, err
	}
	if !ok {
		return Pet{}, ErrAlreadyAdopted
	}

	p.BuyerUserID = &buyer
	p.IsAdopted = true
	p.UpdatedAt = now
	s.log.Info("pet adopted", map[string]any{"pet_id": p.ID, "buyer_id": buyerUserID})
	return p, nil
}
