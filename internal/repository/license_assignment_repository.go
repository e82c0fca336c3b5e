package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
)

// LicenseAssignmentRepository pages through learner license assignments.
type LicenseAssignmentRepository struct {
	client *APIClient
}

// NewLicenseAssignmentRepository constructs the repository.
func NewLicenseAssignmentRepository(client *APIClient) *LicenseAssignmentRepository {
	return &LicenseAssignmentRepository{client: client}
}

// List fetches one page of license assignments.
func (r *LicenseAssignmentRepository) List(ctx context.Context, enterpriseID string, params url.Values) (*dto.PageEnvelope[dto.LicenseAssignmentPayload], error) {
	path := fmt.Sprintf("/api/v1/enterprise-customers/%s/licenses/", url.PathEscape(enterpriseID))

	var envelope dto.PageEnvelope[dto.LicenseAssignmentPayload]
	if err := r.client.Get(ctx, path, params, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}
