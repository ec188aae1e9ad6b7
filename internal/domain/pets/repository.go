package pets

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	// Update no toca is_adopted ni buyer_user_id; eso solo cambia por SetAdopted.
	Update(ctx context.Context, p Pet) error
	// SetAdopted marca adoptada solo si todavía no lo estaba; false si ya lo estaba.
	// buyerUserID nil conserva el comprador actual.
	SetAdopted(ctx context.Context, id string, buyerUserID *string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error

	// ListApproved devuelve solo aprobados, más nuevos primero. limit <= 0 = sin límite.
	ListApproved(ctx context.Context, limit int) ([]Pet, error)
	ListPending(ctx context.Context) ([]Pet, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error)
	ListBySeller(ctx context.Context, sellerUserID string) ([]Pet, error)
}
