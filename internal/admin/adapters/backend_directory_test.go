package adapters

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/backend"
	id "storefront/pkg/domain"
)

func newDirectory(t *testing.T, handler http.HandlerFunc) *BackendDirectory {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewBackendDirectory(backend.New(server.URL, "anon", backend.WithHTTPClient(server.Client())))
}

func respond(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestCheckAdminStatus(t *testing.T) {
	userID := id.UserID(uuid.New())
	dir := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/check_admin_status", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		respond(w, http.StatusOK, `[{"id":"`+userID.String()+`","email":"admin@x.com","is_active":true}]`)
	})

	rows, err := dir.CheckAdminStatus(context.Background(), "user-token", userID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, userID, rows[0].ID)
	assert.True(t, rows[0].IsActive)
}

func TestFindActiveByID(t *testing.T) {
	userID := id.UserID(uuid.New())

	t.Run("found", func(t *testing.T) {
		dir := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/rest/v1/admin_users", r.URL.Path)
			assert.Equal(t, "eq."+userID.String(), r.URL.Query().Get("id"))
			assert.Equal(t, "eq.true", r.URL.Query().Get("is_active"))
			respond(w, http.StatusOK, `{"id":"`+userID.String()+`","email":"admin@x.com","is_active":true}`)
		})

		record, err := dir.FindActiveByID(context.Background(), "tok", userID)
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, "admin@x.com", record.Email)
	})

	t.Run("no rows is nil without error", func(t *testing.T) {
		dir := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
			respond(w, http.StatusNotAcceptable, `{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`)
		})

		record, err := dir.FindActiveByID(context.Background(), "tok", userID)
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("missing table is an error", func(t *testing.T) {
		dir := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
			respond(w, http.StatusNotFound, `{"code":"42P01","message":"relation \"public.admin_users\" does not exist"}`)
		})

		_, err := dir.FindActiveByID(context.Background(), "tok", userID)
		require.Error(t, err)
		assert.True(t, backend.IsMissingRelation(err))
	})

	t.Run("policy failure is an error", func(t *testing.T) {
		dir := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
			respond(w, http.StatusInternalServerError, `{"code":"42P17","message":"infinite recursion detected in policy"}`)
		})

		_, err := dir.FindActiveByID(context.Background(), "tok", userID)
		require.Error(t, err)
		assert.True(t, backend.IsPolicyError(err))
	})
}

func TestFindActiveByEmail(t *testing.T) {
	otherID := id.UserID(uuid.New())
	dir := newDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.admin@x.com", r.URL.Query().Get("email"))
		respond(w, http.StatusOK, `{"id":"`+otherID.String()+`","email":"admin@x.com","is_active":true}`)
	})

	record, err := dir.FindActiveByEmail(context.Background(), "tok", "admin@x.com")
	require.NoError(t, err)
	assert.Equal(t, otherID, record.ID)
}
