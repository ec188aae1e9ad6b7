package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pet-adoption/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, owner_user_id, seller_user_id, buyer_user_id,
	name, type, breed, age, gender, description, image_url,
	is_approved, is_adopted, created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		p.ID,
		p.OwnerUserID,
		p.SellerUserID,
		nullString(p.BuyerUserID),
		p.Name,
		string(p.Type),
		p.Breed,
		p.Age,
		string(p.Gender),
		p.Description,
		nullString(p.ImageURL),
		p.IsApproved,
		p.IsAdopted,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update no escribe is_adopted ni buyer_user_id: una copia vieja no puede deshacer una adopción.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			owner_user_id = $2,
			name = $3,
			type = $4,
			breed = $5,
			age = $6,
			gender = $7,
			description = $8,
			image_url = $9,
			is_approved = $10,
			updated_at = $11
		WHERE id = $1
	`,
		p.ID,
		p.OwnerUserID,
		p.Name,
		string(p.Type),
		p.Breed,
		p.Age,
		string(p.Gender),
		p.Description,
		nullString(p.ImageURL),
		p.IsApproved,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAdopted es un compare-and-set sobre is_adopted.
func (r *PetsRepo) SetAdopted(ctx context.Context, id string, buyerUserID *string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			is_adopted = true,
			buyer_user_id = COALESCE($2, buyer_user_id),
			updated_at = $3
		WHERE id = $1 AND NOT is_adopted
	`, id, nullString(buyerUserID), at)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	return false, r.ensureExists(ctx, id)
}

func (r *PetsRepo) ensureExists(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pets WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// Delete depende de ON DELETE CASCADE para mensajes y solicitudes.
func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetsRepo) ListApproved(ctx context.Context, limit int) ([]pets.Pet, error) {
	if limit > 0 {
		return r.list(ctx, `WHERE is_approved ORDER BY created_at DESC, id LIMIT $1`, limit)
	}
	return r.list(ctx, `WHERE is_approved ORDER BY created_at DESC, id`)
}

func (r *PetsRepo) ListPending(ctx context.Context) ([]pets.Pet, error) {
	return r.list(ctx, `WHERE NOT is_approved ORDER BY created_at DESC, id`)
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	return r.list(ctx, `WHERE owner_user_id = $1 ORDER BY created_at DESC, id`, ownerUserID)
}

func (r *PetsRepo) ListBySeller(ctx context.Context, sellerUserID string) ([]pets.Pet, error) {
	return r.list(ctx, `WHERE seller_user_id = $1 ORDER BY created_at DESC, id`, sellerUserID)
}

func (r *PetsRepo) list(ctx context.Context, where string, args ...any) ([]pets.Pet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+petColumns+` FROM pets `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(s rowScanner) (pets.Pet, error) {
	var (
		p             pets.Pet
		typ, gender   string
		buyer, imgURL sql.NullString
	)
	err := s.Scan(
		&p.ID,
		&p.OwnerUserID,
		&p.SellerUserID,
		&buyer,
		&p.Name,
		&typ,
		&p.Breed,
		&p.Age,
		&gender,
		&p.Description,
		&imgURL,
		&p.IsApproved,
		&p.IsAdopted,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return pets.Pet{}, err
	}
	p.Type = pets.Type(typ)
	p.Gender = pets.Gender(gender)
	p.BuyerUserID = stringPtr(buyer)
	p.ImageURL = stringPtr(imgURL)
	return p, nil
}
