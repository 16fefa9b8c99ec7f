package service

import (
	"context"

	"storefront/internal/backend"
	"storefront/internal/contact/models"
)

const messagesTable = "contact_messages"

// BackendStore writes contact_messages through the hosted backend.
type BackendStore struct {
	t backend.Table[models.Message]
}

func NewBackendStore(client backend.TableClient) *BackendStore {
	return &BackendStore{t: backend.NewTable[models.Message](client, messagesTable)}
}

func (s *BackendStore) Create(ctx context.Context, token string, row *models.NewMessage) (*models.Message, error) {
	return s.t.Insert(ctx, token, row)
}
