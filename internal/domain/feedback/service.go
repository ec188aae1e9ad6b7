package feedback

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/mail"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrMailFailed: el contacto quedó guardado pero algún correo no salió.
	ErrMailFailed = errors.New("mail delivery failed")
)

const (
	MaxNameLen    = 255
	MaxMessageLen = 5000
)

type Options struct {
	From         string
	SupportEmail string
}

type Service struct {
	repo   Repository
	mailer mail.Mailer
	opts   Options
	log    logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, mailer mail.Mailer, opts Options, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		mailer: mailer,
		opts:   opts,
		log:    log.With(map[string]any{"module": "feedback"}),
		now:    time.Now,
	}
}

func (s *Service) SubmitFeedback(ctx context.Context, name, email, message string) (Feedback, error) {
	name, message = strings.TrimSpace(name), strings.TrimSpace(message)
	if err := validate(name, message); err != nil {
		return Feedback{}, err
	}

	var emailPtr *string
	if e := strings.TrimSpace(email); e != "" {
		if !validEmail(e) {
			return Feedback{}, ErrInvalidInput
		}
		emailPtr = &e
	}

	f := Feedback{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     emailPtr,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateFeedback(ctx, f); err != nil {
		return Feedback{}, err
	}
	return f, nil
}

// SubmitContact persiste y luego envía confirmación al usuario y aviso a soporte.
// Si un envío falla devuelve el contacto guardado junto con ErrMailFailed.
func (s *Service) SubmitContact(ctx context.Context, name, email, message string) (Contact, error) {
	name, message = strings.TrimSpace(name), strings.TrimSpace(message)
	email = strings.TrimSpace(email)
	if err := validate(name, message); err != nil {
		return Contact{}, err
	}
	if !validEmail(email) {
		return Contact{}, ErrInvalidInput
	}

	c := Contact{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateContact(ctx, c); err != nil {
		return Contact{}, err
	}

	msgs := []mail.Message{
		{
			Kind:    mail.KindContactConfirmation,
			From:    s.opts.From,
			To:      []string{c.Email},
			Subject: "Thank you for contacting us!",
			Body:    "We have received your message and will get back to you soon.",
		},
		{
			Kind:    mail.KindContactNotification,
			From:    s.opts.From,
			To:      []string{s.opts.SupportEmail},
			Subject: "New Contact Us Message",
			Body:    fmt.Sprintf("Message from %s (%s):\n\n%s", c.Name, c.Email, c.Message),
		},
	}

	for _, m := range msgs {
		if err := s.mailer.Send(ctx, m); err != nil {
			s.log.Error("contact mail failed", map[string]any{"contact_id": c.ID, "kind": string(m.Kind), "error": err})
			return c, fmt.Errorf("%w: %s: %v", ErrMailFailed, m.Kind, err)
		}
	}

	s.log.Info("contact received", map[string]any{"contact_id": c.ID})
	return c, nil
}

func (s *Service) ListFeedback(ctx context.Context) ([]Feedback, error) {
	return s.repo.ListFeedback(ctx)
}

func (s *Service) ListContacts(ctx context.Context) ([]Contact, error) {
	return s.repo.ListContacts(ctx)
}

func validate(name, message string) error {
	if name == "" || message == "" || len(name) > MaxNameLen || len(message) > MaxMessageLen {
		return ErrInvalidInput
	}
	return nil
}

func validEmail(e string) bool {
	if e == "" {
		return false
	}
	_, err := netmail.ParseAddress(e)
	return err == nil
}
