package postgres

import (
	"context"
	"database/sql"
	"errors"

	"pet-adoption/internal/domain/messaging"
)

type MessagesRepo struct {
	db *sql.DB
}

func NewMessagesRepo(db *sql.DB) *MessagesRepo {
	return &MessagesRepo{db: db}
}

const messageColumns = `id, pet_id, sender_id, receiver_id, content, created_at`

func (r *MessagesRepo) Create(ctx context.Context, m messaging.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, m.ID, m.PetID, m.SenderID, m.ReceiverID, m.Content, m.CreatedAt)
	return err
}

func (r *MessagesRepo) GetByID(ctx context.Context, id string) (messaging.Message, error) {
	var m messaging.Message
	err := r.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id).
		Scan(&m.ID, &m.PetID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return messaging.Message{}, ErrNotFound
		}
		return messaging.Message{}, err
	}
	return m, nil
}

func (r *MessagesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MessagesRepo) ListThread(ctx context.Context, petID, userA, userB string) ([]messaging.Message, error) {
	return r.list(ctx, `
		WHERE pet_id = $1
		  AND ((sender_id = $2 AND receiver_id = $3) OR (sender_id = $3 AND receiver_id = $2))
		ORDER BY created_at, id
	`, petID, userA, userB)
}

func (r *MessagesRepo) ListByPets(ctx context.Context, petIDs []string) ([]messaging.Message, error) {
	if len(petIDs) == 0 {
		return []messaging.Message{}, nil
	}
	return r.list(ctx, `WHERE pet_id = ANY($1) ORDER BY created_at, id`, petIDs)
}

func (r *MessagesRepo) DeleteByPet(ctx context.Context, petID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE pet_id = $1`, petID)
	return err
}

func (r *MessagesRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1`, userID)
	return err
}

func (r *MessagesRepo) list(ctx context.Context, where string, args ...any) ([]messaging.Message, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+messageColumns+` FROM messages `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]messaging.Message, 0)
	for rows.Next() {
		var m messaging.Message
		if err := rows.Scan(&m.ID, &m.PetID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
