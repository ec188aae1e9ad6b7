package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/domain/requests"
)

type RequestsRepo struct {
	db *sql.DB
}

func NewRequestsRepo(db *sql.DB) *RequestsRepo {
	return &RequestsRepo{db: db}
}

const requestColumns = `
	id, kind, pet_id, requester_id, doctor_id, status, note,
	created_at, updated_at, decided_at, decided_by`

// Create se apoya en requests_one_pending_idx para la unicidad de Pending.
func (r *RequestsRepo) Create(ctx context.Context, req requests.Request) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		req.ID,
		string(req.Kind),
		req.PetID,
		req.RequesterID,
		nullString(req.DoctorID),
		string(req.Status),
		req.Note,
		req.CreatedAt,
		req.UpdatedAt,
		nullTime(req.DecidedAt),
		nullString(req.DecidedBy),
	)
	if err != nil && isUniqueViolation(err) {
		return requests.ErrDuplicatePending
	}
	return err
}

func (r *RequestsRepo) GetByID(ctx context.Context, id string) (requests.Request, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return requests.Request{}, ErrNotFound
		}
		return requests.Request{}, err
	}
	return req, nil
}

// Transition es un compare-and-set: el WHERE sobre status hace que solo una decisión concurrente gane.
func (r *RequestsRepo) Transition(ctx context.Context, id string, from, to requests.Status, decidedBy string, at time.Time) (bool, error) {
	var (
		decidedAt sql.NullTime
		by        sql.NullString
	)
	if to != requests.StatusPending {
		decidedAt = sql.NullTime{Time: at, Valid: true}
		by = sql.NullString{String: decidedBy, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE requests
		SET
			status = $3,
			updated_at = $4,
			decided_at = $5,
			decided_by = $6
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to), at, decidedAt, by)
	if err != nil {
		return false, err
	}
	return r.applied(ctx, res, id)
}

func (r *RequestsRepo) AssignDoctor(ctx context.Context, id, doctorID string, onlyUnassigned bool, at time.Time) (bool, error) {
	q := `
		UPDATE requests
		SET doctor_id = $2, updated_at = $3
		WHERE id = $1 AND status = 'Pending'`
	if onlyUnassigned {
		q += ` AND doctor_id IS NULL`
	}
	res, err := r.db.ExecContext(ctx, q, id, doctorID, at)
	if err != nil {
		return false, err
	}
	return r.applied(ctx, res, id)
}

// applied distingue "la condición no se cumplió" (false) de "no existe" (ErrNotFound).
func (r *RequestsRepo) applied(ctx context.Context, res sql.Result, id string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *RequestsRepo) FindOpen(ctx context.Context, kind requests.Kind, petID, requesterID string) (requests.Request, bool, error) {
	return r.findLatest(ctx, `AND status = 'Pending'`, kind, petID, requesterID)
}

func (r *RequestsRepo) FindLatest(ctx context.Context, kind requests.Kind, petID, requesterID string) (requests.Request, bool, error) {
	return r.findLatest(ctx, ``, kind, petID, requesterID)
}

func (r *RequestsRepo) findLatest(ctx context.Context, extra string, kind requests.Kind, petID, requesterID string) (requests.Request, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE kind = $1 AND pet_id = $2 AND requester_id = $3 `+extra+`
		ORDER BY created_at DESC
		LIMIT 1
	`, string(kind), petID, requesterID)

	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return requests.Request{}, false, nil
		}
		return requests.Request{}, false, err
	}
	return req, true, nil
}

func (r *RequestsRepo) List(ctx context.Context, f requests.Filter) ([]requests.Request, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}
	if f.RequesterID != "" {
		add("requester_id = $%d", f.RequesterID)
	}
	if f.PetIDs != nil {
		if len(f.PetIDs) == 0 {
			return []requests.Request{}, nil
		}
		add("pet_id = ANY($%d)", f.PetIDs)
	}
	if f.ForDoctor != "" {
		conds = append(conds, "kind = 'clearance'")
		add("(doctor_id IS NULL OR doctor_id = $%d)", f.ForDoctor)
	}

	q := `SELECT ` + requestColumns + ` FROM requests`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]requests.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *RequestsRepo) DeleteByPet(ctx context.Context, petID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE pet_id = $1`, petID)
	return err
}

// DeleteByUser adelanta lo que harían las FKs de users (CASCADE en requester, SET NULL en doctor).
func (r *RequestsRepo) DeleteByUser(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM requests WHERE requester_id = $1`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE requests SET doctor_id = NULL WHERE doctor_id = $1`, userID); err != nil {
		return err
	}
	return tx.Commit()
}

func scanRequest(s rowScanner) (requests.Request, error) {
	var (
		req                 requests.Request
		kind, status        string
		doctorID, decidedBy sql.NullString
		decidedAt           sql.NullTime
	)
	err := s.Scan(
		&req.ID,
		&kind,
		&req.PetID,
		&req.RequesterID,
		&doctorID,
		&status,
		&req.Note,
		&req.CreatedAt,
		&req.UpdatedAt,
		&decidedAt,
		&decidedBy,
	)
	if err != nil {
		return requests.Request{}, err
	}
	req.Kind = requests.Kind(kind)
	req.Status = requests.Status(status)
	req.DoctorID = stringPtr(doctorID)
	req.DecidedAt = timePtr(decidedAt)
	req.DecidedBy = stringPtr(decidedBy)
	return req, nil
}
