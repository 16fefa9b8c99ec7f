package adapters

import (
	"context"

	"storefront/internal/admin/models"
	"storefront/internal/backend"
	id "storefront/pkg/domain"
)

const (
	adminTable          = "admin_users"
	checkAdminStatusRPC = "check_admin_status"
)

// RESTClient is the slice of the backend client the directory needs.
type RESTClient interface {
	Select(ctx context.Context, token, table string, f *backend.Filter, out any) error
	SelectSingle(ctx context.Context, token, table string, f *backend.Filter, out any) error
	CallFunction(ctx context.Context, token, fn string, args any, out any) error
}

// BackendDirectory reads admin_users through the hosted backend's REST API.
type BackendDirectory struct {
	client RESTClient
}

func NewBackendDirectory(client RESTClient) *BackendDirectory {
	return &BackendDirectory{client: client}
}

// CheckAdminStatus calls check_admin_status(user_id), a security definer
// function that reads admin_users without row-level policies.
func (d *BackendDirectory) CheckAdminStatus(ctx context.Context, accessToken string, userID id.UserID) ([]models.AdminRecord, error) {
	var rows []models.AdminRecord
	err := d.client.CallFunction(ctx, accessToken, checkAdminStatusRPC,
		map[string]string{"user_id": userID.String()}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *BackendDirectory) FindActiveByID(ctx context.Context, accessToken string, userID id.UserID) (*models.AdminRecord, error) {
	return d.findOne(ctx, accessToken, backend.NewFilter().Eq("id", userID).Eq("is_active", true))
}

func (d *BackendDirectory) FindActiveByEmail(ctx context.Context, accessToken, email string) (*models.AdminRecord, error) {
	return d.findOne(ctx, accessToken, backend.NewFilter().Eq("email", email).Eq("is_active", true))
}

// findOne maps "no rows" to (nil, nil). A missing admin_users table is not
// "no rows" and is returned as an error.
func (d *BackendDirectory) findOne(ctx context.Context, accessToken string, f *backend.Filter) (*models.AdminRecord, error) {
	var record models.AdminRecord
	err := d.client.SelectSingle(ctx, accessToken, adminTable, f, &record)
	if err != nil {
		if backend.IsNotFound(err) && !backend.IsMissingRelation(err) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
