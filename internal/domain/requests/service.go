package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/authz"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/capabilities"
	"pet-adoption/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("request not found")
	ErrForbidden    = errors.New("forbidden")
	ErrBadState     = errors.New("invalid state")
)

const MaxNoteLen = 1000

type PetLookup interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	ListBySeller(ctx context.Context, sellerUserID string) ([]pets.Pet, error)
}

// PetAdopter marca la mascota como adoptada por buyerUserID.
type PetAdopter interface {
	Adopt(ctx context.Context, petID, buyerUserID string) (pets.Pet, error)
}

// PetGateway es lo que requests usa de pets; pets.Service lo cumple.
type PetGateway interface {
	PetLookup
	PetAdopter
}

type DoctorLookup interface {
	IsDoctor(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	repo    Repository
	pets    PetGateway
	doctors DoctorLookup
	caps    capabilities.CapabilitiesResolver
	log     logger.Logger
	now     func() time.Time
}

func NewService(repo Repository, petGateway PetGateway, doctors DoctorLookup, caps capabilities.CapabilitiesResolver, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		pets:    petGateway,
		doctors: doctors,
		caps:    caps,
		log:     log.With(map[string]any{"module": "requests"}),
		now:     time.Now,
	}
}

type CreateInput struct {
	Kind        Kind
	PetID       string
	RequesterID string
	DoctorID    string // solo clearance, opcional
	Note        string
}

// Create es idempotente mientras haya una Pending para (kind, pet, requester):
// devuelve la existente con created=false.
func (s *Service) Create(ctx context.Context, in CreateInput) (Request, bool, error) {
	requesterID := strings.TrimSpace(in.RequesterID)
	note := strings.TrimSpace(in.Note)
	if requesterID == "" || len(note) > MaxNoteLen {
		return Request{}, false, ErrInvalidInput
	}
	if _, ok := ParseKind(string(in.Kind)); !ok {
		return Request{}, false, ErrInvalidInput
	}

	p, err := s.pet(ctx, in.PetID)
	if err != nil {
		return Request{}, false, err
	}

	switch in.Kind {
	case KindBuyer, KindAdoption:
		if p.OwnerUserID == requesterID || p.SellerUserID == requesterID {
			return Request{}, false, ErrInvalidInput
		}
		if !p.IsApproved || p.IsAdopted {
			return Request{}, false, ErrBadState
		}
	case KindSeller:
		if p.SellerUserID != requesterID {
			return Request{}, false, ErrForbidden
		}
	}

	var doctorID *string
	if d := strings.TrimSpace(in.DoctorID); d != "" {
		if in.Kind != KindClearance {
			return Request{}, false, ErrInvalidInput
		}
		if err := s.ensureDoctor(ctx, d); err != nil {
			return Request{}, false, err
		}
		doctorID = &d
	}

	if existing, ok, err := s.repo.FindOpen(ctx, in.Kind, p.ID, requesterID); err != nil {
		return Request{}, false, err
	} else if ok {
		return existing, false, nil
	}

	now := s.now()
	req := Request{
		ID:          uuid.NewString(),
		Kind:        in.Kind,
		PetID:       p.ID,
		RequesterID: requesterID,
		DoctorID:    doctorID,
		Status:      StatusPending,
		Note:        note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		// carrera: otra request creó la Pending entre FindOpen y Create
		if errors.Is(err, ErrDuplicatePending) {
			existing, ok, ferr := s.repo.FindOpen(ctx, in.Kind, p.ID, requesterID)
			if ferr == nil && ok {
				return existing, false, nil
			}
		}
		return Request{}, false, err
	}

	s.log.Info("request created", map[string]any{"request_id": req.ID, "kind": string(req.Kind), "pet_id": req.PetID})
	return req, true, nil
}

// Decide mueve una Pending a Approved/Rejected.
// buyer/adoption: vendedor de la mascota. seller: admin. clearance: doctor asignado o admin.
func (s *Service) Decide(ctx context.Context, requestID string, actor authz.Actor, to Status) (Request, error) {
	if to != StatusApproved && to != StatusRejected {
		return Request{}, ErrInvalidInput
	}

	req, err := s.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}

	var p pets.Pet
	if req.Kind == KindBuyer || req.Kind == KindAdoption {
		if p, err = s.pet(ctx, req.PetID); err != nil {
			return Request{}, err
		}
	}
	if !s.canDecide(ctx, req, p, actor) {
		return Request{}, ErrForbidden
	}

	if !req.IsPending() {
		return Request{}, ErrBadState
	}

	adopts := to == StatusApproved && (req.Kind == KindBuyer || req.Kind == KindAdoption)
	if adopts && p.IsAdopted {
		return Request{}, ErrBadState
	}

	now := s.now()
	decidedBy := actor.UserID
	ok, err := s.repo.Transition(ctx, req.ID, StatusPending, to, decidedBy, now)
	if err != nil {
		return Request{}, s.storeErr(err, req.ID)
	}
	if !ok {
		return Request{}, ErrBadState
	}

	if adopts {
		if _, err := s.pets.Adopt(ctx, req.PetID, req.RequesterID); err != nil {
			s.reopen(ctx, req.ID, to)
			if errors.Is(err, pets.ErrAlreadyAdopted) {
				return Request{}, ErrBadState
			}
			return Request{}, fmt.Errorf("adopt pet %s: %w", req.PetID, err)
		}
	}

	req.Status = to
	req.UpdatedAt = now
	req.DecidedAt = &now
	req.DecidedBy = &decidedBy

	s.log.Info("request decided", map[string]any{
		"request_id": req.ID,
		"kind":       string(req.Kind),
		"status":     string(req.Status),
		"actor_id":   actor.UserID,
	})
	return req, nil
}

// reopen devuelve a Pending una solicitud cuya adopción no se pudo registrar.
func (s *Service) reopen(ctx context.Context, requestID string, from Status) {
	ok, err := s.repo.Transition(ctx, requestID, from, StatusPending, "", s.now())
	if err != nil || !ok {
		s.log.Error("request reopen failed", map[string]any{"request_id": requestID, "error": fmt.Sprint(err)})
	}
}

func (s *Service) canDecide(ctx context.Context, req Request, p pets.Pet, actor authz.Actor) bool {
	switch req.Kind {
	case KindBuyer, KindAdoption:
		return actor.UserID != "" && actor.UserID == p.SellerUserID
	case KindSeller:
		return authz.Allowed(ctx, s.caps, actor, capabilities.RequestsDecideAny)
	case KindClearance:
		if authz.Allowed(ctx, s.caps, actor, capabilities.RequestsDecideAny) {
			return true
		}
		return req.DoctorID != nil && *req.DoctorID == actor.UserID &&
			authz.Allowed(ctx, s.caps, actor, capabilities.ClearanceDecide)
	default:
		return false
	}
}

// Assign: un admin asigna cualquier doctor; un doctor solo puede tomar una clearance sin asignar.
// doctorID vacío significa "yo".
func (s *Service) Assign(ctx context.Context, requestID string, actor authz.Actor, doctorID string) (Request, error) {
	req, err := s.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Kind != KindClearance {
		return Request{}, ErrInvalidInput
	}

	doctorID = strings.TrimSpace(doctorID)
	if doctorID == "" {
		doctorID = actor.UserID
	}

	isAdmin := authz.Allowed(ctx, s.caps, actor, capabilities.RequestsDecideAny)
	claiming := doctorID == actor.UserID && req.DoctorID == nil &&
		authz.Allowed(ctx, s.caps, actor, capabilities.ClearanceDecide)
	if !isAdmin && !claiming {
		return Request{}, ErrForbidden
	}

	if !req.IsPending() {
		return Request{}, ErrBadState
	}
	if err := s.ensureDoctor(ctx, doctorID); err != nil {
		return Request{}, err
	}

	now := s.now()
	ok, err := s.repo.AssignDoctor(ctx, req.ID, doctorID, !isAdmin, now)
	if err != nil {
		return Request{}, s.storeErr(err, req.ID)
	}
	if !ok {
		// se decidió o la tomó otro doctor entre la lectura y el update
		current, gerr := s.Get(ctx, req.ID)
		if gerr == nil && current.IsPending() && !isAdmin {
			return Request{}, ErrForbidden
		}
		return Request{}, ErrBadState
	}

	req.DoctorID = &doctorID
	req.UpdatedAt = now

	s.log.Info("clearance assigned", map[string]any{"request_id": req.ID, "doctor_id": doctorID})
	return req, nil
}

func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Request{}, ErrInvalidInput
	}
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Request{}, s.storeErr(err, id)
	}
	return req, nil
}

// storeErr traduce solo el not-found del store; el resto se propaga envuelto.
func (s *Service) storeErr(err error, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("request %s: %w", id, err)
}

func (s *Service) FindOpen(ctx context.Context, kind Kind, petID, requesterID string) (Request, bool, error) {
	return s.repo.FindOpen(ctx, kind, petID, requesterID)
}

// ClearanceStatus implementa pets.ClearanceLookup para el detalle de mascota.
func (s *Service) ClearanceStatus(ctx context.Context, petID, requesterID string) (string, bool, error) {
	req, ok, err := s.repo.FindLatest(ctx, KindClearance, petID, requesterID)
	if err != nil || !ok {
		return "", false, err
	}
	return string(req.Status), true, nil
}

// ListMine: kind vacío = todos.
func (s *Service) ListMine(ctx context.Context, requesterID string, kind Kind) ([]Request, error) {
	if strings.TrimSpace(requesterID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, Filter{Kind: kind, RequesterID: requesterID})
}

// ListForSeller devuelve las solicitudes sobre mascotas del vendedor.
func (s *Service) ListForSeller(ctx context.Context, sellerID string, kind Kind) ([]Request, error) {
	owned, err := s.pets.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(owned))
	for _, p := range owned {
		ids = append(ids, p.ID)
	}
	return s.repo.List(ctx, Filter{Kind: kind, PetIDs: ids})
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID string) ([]Request, error) {
	if strings.TrimSpace(doctorID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, Filter{Kind: KindClearance, ForDoctor: doctorID})
}

func (s *Service) ListAll(ctx context.Context, kind Kind) ([]Request, error) {
	return s.repo.List(ctx, Filter{Kind: kind})
}

// DeleteByPet es el hook de cascada de pets.
func (s *Service) DeleteByPet(ctx context.Context, petID string) error {
	return s.repo.DeleteByPet(ctx, petID)
}

// DeleteByUser es el hook de cascada de users: borra lo que pidió y libera
// las clearance que tenía asignadas para que otro doctor las tome.
func (s *Service) DeleteByUser(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.log.Info("requests released for deleted user", map[string]any{"user_id": userID})
	return nil
}

func (s *Service) ensureDoctor(ctx context.Context, userID string) error {
	if s.doctors == nil {
		return ErrInvalidInput
	}
	ok, err := s.doctors.IsDoctor(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidInput
	}
	return nil
}

func (s *Service) pet(ctx context.Context, petID string) (pets.Pet, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		switch {
		case errors.Is(err, pets.ErrInvalidInput):
			return pets.Pet{}, ErrInvalidInput
		case errors.Is(err, pets.ErrNotFound):
			return pets.Pet{}, fmt.Errorf("%w: pet", ErrNotFound)
		}
		return pets.Pet{}, err
	}
	return p, nil
}
