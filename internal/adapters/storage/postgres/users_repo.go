package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pet-adoption/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const accountSelect = `
	SELECT u.id, u.username, u.email, u.password_hash, u.is_active, u.created_at, u.updated_at,
	       p.role, p.status, p.phone, p.specialization
	FROM users u
	JOIN profiles p ON p.user_id = u.id`

// Create inserta usuario y perfil en la misma transacción.
func (r *UsersRepo) Create(ctx context.Context, a users.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, a.User.ID, a.User.Username, a.User.Email, a.User.PasswordHash, a.User.IsActive, a.User.CreatedAt, a.User.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return users.ErrConflict
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, role, status, phone, specialization)
		VALUES ($1,$2,$3,$4,$5)
	`, a.User.ID, string(a.Profile.Role), string(a.Profile.Status), nullString(a.Profile.Phone), nullString(a.Profile.Specialization))
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.Account, error) {
	return r.get(ctx, `WHERE u.id = $1`, id)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (users.Account, error) {
	return r.get(ctx, `WHERE lower(u.username) = lower($1)`, username)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.Account, error) {
	return r.get(ctx, `WHERE u.email <> '' AND lower(u.email) = lower($1) ORDER BY u.created_at LIMIT 1`, email)
}

func (r *UsersRepo) get(ctx context.Context, where string, arg string) (users.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, accountSelect+` `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.Account{}, ErrNotFound
		}
		return users.Account{}, err
	}
	return a, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]users.Account, error) {
	return r.list(ctx, `ORDER BY u.created_at, u.username`)
}

func (r *UsersRepo) ListByRole(ctx context.Context, role users.Role) ([]users.Account, error) {
	return r.list(ctx, `WHERE p.role = $1 ORDER BY u.created_at, u.username`, string(role))
}

func (r *UsersRepo) list(ctx context.Context, tail string, args ...any) ([]users.Account, error) {
	rows, err := r.db.QueryContext(ctx, accountSelect+` `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update no toca rol ni status; eso va por SetActive.
func (r *UsersRepo) Update(ctx context.Context, a users.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, updated_at = $4
		WHERE id = $1
	`, a.User.ID, a.User.Email, a.User.PasswordHash, a.User.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE profiles SET phone = $2, specialization = $3 WHERE user_id = $1
	`, a.User.ID, nullString(a.Profile.Phone), nullString(a.Profile.Specialization))
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *UsersRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE profiles SET status = $2 WHERE user_id = $1`, id, string(users.StatusFor(active))); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete arrastra perfil, mascotas, mensajes y solicitudes por cascada.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(s rowScanner) (users.Account, error) {
	var (
		a                     users.Account
		role, status          string
		phone, specialization sql.NullString
	)
	err := s.Scan(
		&a.User.ID,
		&a.User.Username,
		&a.User.Email,
		&a.User.PasswordHash,
		&a.User.IsActive,
		&a.User.CreatedAt,
		&a.User.UpdatedAt,
		&role,
		&status,
		&phone,
		&specialization,
	)
	if err != nil {
		return users.Account{}, err
	}
	a.Profile.UserID = a.User.ID
	a.Profile.Role = users.Role(role)
	a.Profile.Status = users.Status(status)
	a.Profile.Phone = stringPtr(phone)
	a.Profile.Specialization = stringPtr(specialization)
	return a, nil
}
