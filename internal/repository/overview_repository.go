package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
)

// OverviewRepository reads per-state request tallies.
type OverviewRepository struct {
	client *APIClient
}

// NewOverviewRepository constructs the repository.
func NewOverviewRepository(client *APIClient) *OverviewRepository {
	return &OverviewRepository{client: client}
}

// Overview returns [{state,count}] for a channel, optionally narrowed by search params.
func (r *OverviewRepository) Overview(ctx context.Context, channel models.SubsidyChannel, enterpriseID string, params url.Values) ([]dto.OverviewCountPayload, error) {
	path, err := requestCollectionPath(channel)
	if err != nil {
		return nil, err
	}
	query := cloneValues(params)
	query.Set("enterprise_customer_uuid", enterpriseID)

	var counts []dto.OverviewCountPayload
	if err := r.client.Get(ctx, path+"overview/", query, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}
