package messaging

import "time"

// Message es inmutable; solo su remitente puede borrarlo.
type Message struct {
	ID         string
	PetID      string
	SenderID   string
	ReceiverID string
	Content    string
	CreatedAt  time.Time
}

// ConversationSummary es una fila de la bandeja del vendedor: una por (mascota, contraparte).
type ConversationSummary struct {
	PetID         string
	PetName       string
	CounterpartID string
	LastMessageAt time.Time
	MessageCount  int
}
