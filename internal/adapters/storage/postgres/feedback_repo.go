package postgres

import (
	"context"
	"database/sql"

	"pet-adoption/internal/domain/feedback"
)

type FeedbackRepo struct {
	db *sql.DB
}

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

func (r *FeedbackRepo) CreateFeedback(ctx context.Context, f feedback.Feedback) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback (id, name, email, message, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, f.ID, f.Name, nullString(f.Email), f.Message, f.CreatedAt)
	return err
}

func (r *FeedbackRepo) ListFeedback(ctx context.Context) ([]feedback.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, message, created_at
		FROM feedback
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]feedback.Feedback, 0)
	for rows.Next() {
		var (
			f     feedback.Feedback
			email sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Name, &email, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Email = stringPtr(email)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FeedbackRepo) CreateContact(ctx context.Context, c feedback.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, email, message, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, c.ID, c.Name, c.Email, c.Message, c.CreatedAt)
	return err
}

func (r *FeedbackRepo) ListContacts(ctx context.Context) ([]feedback.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, message, created_at
		FROM contacts
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]feedback.Contact, 0)
	for rows.Next() {
		var c feedback.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
