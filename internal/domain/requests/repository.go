package requests

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicatePending lo devuelve Create si ya hay una Pending para (kind, pet, requester).
var ErrDuplicatePending = errors.New("pending request already exists")

// Filter: campos vacíos no filtran. PetIDs != nil restringe a esas mascotas (vacío = ninguna).
// ForDoctor trae clearance asignadas a ese doctor o sin asignar.
type Filter struct {
	Kind        Kind
	RequesterID string
	PetIDs      []string
	ForDoctor   string
}

type Repository interface {
	// Create debe ser atómico respecto a la unicidad de Pending por (kind, pet, requester).
	Create(ctx context.Context, r Request) error
	GetByID(ctx context.Context, id string) (Request, error)

	// Transition pasa la solicitud de from a to solo si su estado actual es from.
	// Devuelve false si otro proceso la movió antes. to == Pending limpia decided_at/decided_by.
	Transition(ctx context.Context, id string, from, to Status, decidedBy string, at time.Time) (bool, error)
	// AssignDoctor fija el doctor solo si la solicitud sigue Pending
	// (y, con onlyUnassigned, si todavía no tiene doctor).
	AssignDoctor(ctx context.Context, id, doctorID string, onlyUnassigned bool, at time.Time) (bool, error)

	FindOpen(ctx context.Context, kind Kind, petID, requesterID string) (Request, bool, error)
	// FindLatest ignora el estado.
	FindLatest(ctx context.Context, kind Kind, petID, requesterID string) (Request, bool, error)

	// List ordena por created_at desc.
	List(ctx context.Context, f Filter) ([]Request, error)
	DeleteByPet(ctx context.Context, petID string) error
	// DeleteByUser borra las solicitudes del usuario y lo desasigna de las que atendía como doctor.
	DeleteByUser(ctx context.Context, userID string) error
}
