package mailer

import (
	"context"
	"fmt"
	"net/http"

	"pet-adoption/internal/platform/httpclient"
	"pet-adoption/internal/ports/mail"
)

// RelayMailer entrega vía un relay HTTP (POST JSON con el mensaje).
type RelayMailer struct {
	client *httpclient.Client
	path   string
}

func NewRelayMailer(client *httpclient.Client, path string) *RelayMailer {
	if path == "" {
		path = "/send"
	}
	return &RelayMailer{client: client, path: path}
}

func (r *RelayMailer) Send(ctx context.Context, m mail.Message) error {
	if err := r.client.DoJSON(ctx, http.MethodPost, r.path, nil, m, nil); err != nil {
		return fmt.Errorf("relay mail: %w", err)
	}
	return nil
}
