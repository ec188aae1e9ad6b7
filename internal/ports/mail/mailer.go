package mail

import "context"

type Kind string

const (
	KindContactConfirmation Kind = "contact_confirmation"
	KindContactNotification Kind = "contact_notification"
	KindPasswordReset       Kind = "password_reset"
)

type Message struct {
	Kind    Kind     `json:"kind"`
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Mailer entrega un mensaje a la infraestructura de correo.
// Un error significa que el mensaje NO quedó encolado/enviado.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}
