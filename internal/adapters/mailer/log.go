package mailer

import (
	"context"

	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/mail"
)

// LogMailer solo loguea; para desarrollo sin infraestructura de correo.
type LogMailer struct {
	log logger.Logger
}

func NewLogMailer(log logger.Logger) *LogMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &LogMailer{log: log.With(map[string]any{"module": "mailer"})}
}

func (l *LogMailer) Send(ctx context.Context, m mail.Message) error {
	l.log.Info("mail (not delivered)", map[string]any{
		"kind":    string(m.Kind),
		"to":      m.To,
		"subject": m.Subject,
	})
	return nil
}
