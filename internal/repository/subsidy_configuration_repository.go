package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
)

const configurationCollectionPath = "/api/v1/customer-configurations/"

// SubsidyConfigurationRepository manages the per-enterprise configuration resource.
type SubsidyConfigurationRepository struct {
	client *APIClient
}

// NewSubsidyConfigurationRepository constructs the repository.
func NewSubsidyConfigurationRepository(client *APIClient) *SubsidyConfigurationRepository {
	return &SubsidyConfigurationRepository{client: client}
}

// Get returns the configuration. A missing configuration surfaces as a NOT_FOUND error.
func (r *SubsidyConfigurationRepository) Get(ctx context.Context, enterpriseID string) (*dto.SubsidyConfigurationPayload, error) {
	var payload dto.SubsidyConfigurationPayload
	if err := r.client.Get(ctx, configurationPath(enterpriseID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Create creates the configuration.
func (r *SubsidyConfigurationRepository) Create(ctx context.Context, payload dto.SubsidyConfigurationPayload) (*dto.SubsidyConfigurationPayload, error) {
	var created dto.SubsidyConfigurationPayload
	if err := r.client.Post(ctx, configurationCollectionPath, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update sends a partial update.
func (r *SubsidyConfigurationRepository) Update(ctx context.Context, enterpriseID string, patch dto.SubsidyConfigurationPatchPayload) (*dto.SubsidyConfigurationPayload, error) {
	var updated dto.SubsidyConfigurationPayload
	if err := r.client.Patch(ctx, configurationPath(enterpriseID), patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func configurationPath(enterpriseID string) string {
	return fmt.Sprintf("%s%s/", configurationCollectionPath, url.PathEscape(enterpriseID))
}
