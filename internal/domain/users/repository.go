package users

import (
	"context"
	"time"
)

type Repository interface {
	// Create devuelve ErrConflict si el username ya existe.
	Create(ctx context.Context, a Account) error
	GetByID(ctx context.Context, id string) (Account, error)
	GetByUsername(ctx context.Context, username string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	ListByRole(ctx context.Context, role Role) ([]Account, error)

	// Update persiste email, password hash y datos de perfil (no rol ni status).
	Update(ctx context.Context, a Account) error

	// SetActive escribe User.IsActive y Profile.Status en una sola operación.
	SetActive(ctx context.Context, id string, active bool, at time.Time) error

	Delete(ctx context.Context, id string) error
}
