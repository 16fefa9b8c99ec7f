package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"storefront/internal/backend"
	"storefront/internal/contact/models"
	"storefront/internal/contact/service/mocks"
	"storefront/internal/platform/metrics"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/middleware/requesttime"
	"storefront/pkg/platform/sanitize"
)

func newService(t *testing.T) (*Service, *mocks.MockStore, *metrics.Metrics) {
	t.Helper()
	store := mocks.NewMockStore(gomock.NewController(t))
	m := metrics.New(prometheus.NewRegistry())
	svc := New(store, sanitize.New(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(m),
	)
	return svc, store, m
}

func TestSubmit(t *testing.T) {
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	ctx := requesttime.WithTime(context.Background(), now)

	t.Run("stores a sanitized unread message", func(t *testing.T) {
		svc, store, m := newService(t)
		msgID := id.MessageID(uuid.New())
		store.EXPECT().Create(gomock.Any(), "", &models.NewMessage{
			Name:      "Ann",
			Email:     "ann@example.com",
			Subject:   "Order 12",
			Message:   "Where is my order?",
			IsRead:    false,
			CreatedAt: now,
		}).Return(&models.Message{ID: msgID}, nil)

		msg, err := svc.Submit(ctx, "", &models.SubmitRequest{
			Name:    "<b>Ann</b>",
			Email:   "ann@example.com",
			Subject: "Order 12",
			Message: `Where is my order?<img src=x onerror="alert(1)">`,
		})
		require.NoError(t, err)
		assert.Equal(t, msgID, msg.ID)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.ContactMessages))
	})

	t.Run("message that is only markup", func(t *testing.T) {
		svc, _, _ := newService(t)
		_, err := svc.Submit(ctx, "", &models.SubmitRequest{Name: "Ann", Email: "ann@example.com", Message: "<p></p>"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("missing table", func(t *testing.T) {
		svc, store, m := newService(t)
		store.EXPECT().Create(gomock.Any(), "", gomock.Any()).
			Return(nil, &backend.Error{Category: backend.CategoryNotFound, Status: 404, Code: backend.CodeSchemaCacheTable})

		_, err := svc.Submit(ctx, "", &models.SubmitRequest{Name: "Ann", Email: "ann@example.com", Message: "Hi"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTableNotFound))
		assert.Equal(t, float64(0), testutil.ToFloat64(m.ContactMessages))
	})
}

func TestBackendStoreCreate(t *testing.T) {
	msgID := uuid.NewString()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/contact_messages", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["is_read"])
		assert.NotContains(t, body, "subject")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"`+msgID+`","name":"Ann","email":"ann@example.com","message":"Hi","is_read":false}]`)
	}))
	defer server.Close()

	store := NewBackendStore(backend.New(server.URL, "anon", backend.WithHTTPClient(server.Client())))
	msg, err := store.Create(context.Background(), "", &models.NewMessage{Name: "Ann", Email: "ann@example.com", Message: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, msgID, msg.ID.String())
}
