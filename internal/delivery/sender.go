package delivery

import (
	"context"

	"comercio/internal/domain"
	"comercio/internal/providers/whatsapp"
)

// MessageSender executes one delivery attempt against the chat transport.
// Implementations make a single attempt; retries are owned by the queue.
type MessageSender interface {
	SendMedia(ctx context.Context, job domain.DeliveryJob) error
}

// WhatsAppSender delivers media jobs through the WhatsApp client.
type WhatsAppSender struct {
	Client *whatsapp.Client
}

func (s *WhatsAppSender) SendMedia(ctx context.Context, job domain.DeliveryJob) error {
	_, err := s.Client.SendDocument(ctx, whatsapp.SendDocumentRequest{
		To:       job.Recipient,
		Body:     job.Content.Text,
		MediaURL: job.Content.MediaURL,
	})
	return err
}

var _ MessageSender = (*WhatsAppSender)(nil)
