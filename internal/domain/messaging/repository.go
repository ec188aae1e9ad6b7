package messaging

import "context"

type Repository interface {
	Create(ctx context.Context, m Message) error
	GetByID(ctx context.Context, id string) (Message, error)
	Delete(ctx context.Context, id string) error

	// ListThread devuelve los mensajes de petID entre userA y userB (ambas direcciones), ascendente.
	ListThread(ctx context.Context, petID, userA, userB string) ([]Message, error)
	ListByPets(ctx context.Context, petIDs []string) ([]Message, error)
	DeleteByPet(ctx context.Context, petID string) error
	// DeleteByUser borra los mensajes enviados o recibidos por el usuario.
	DeleteByUser(ctx context.Context, userID string) error
}
