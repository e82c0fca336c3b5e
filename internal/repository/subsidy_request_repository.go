package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
)

func requestCollectionPath(channel models.SubsidyChannel) (string, error) {
	switch channel {
	case models.SubsidyChannelLicense:
		return "/api/v1/license-requests/", nil
	case models.SubsidyChannelCoupon:
		return "/api/v1/coupon-code-requests/", nil
	default:
		return "", fmt.Errorf("unsupported subsidy channel %q", channel)
	}
}

// SubsidyRequestRepository reads and acts on subsidy requests through the enterprise API.
type SubsidyRequestRepository struct {
	client *APIClient
}

// NewSubsidyRequestRepository constructs the repository.
func NewSubsidyRequestRepository(client *APIClient) *SubsidyRequestRepository {
	return &SubsidyRequestRepository{client: client}
}

// List fetches one page of requests for the channel. params carries page, page_size, ordering, search and state.
func (r *SubsidyRequestRepository) List(ctx context.Context, channel models.SubsidyChannel, enterpriseID string, params url.Values) (*dto.PageEnvelope[dto.SubsidyRequestPayload], error) {
	path, err := requestCollectionPath(channel)
	if err != nil {
		return nil, err
	}
	query := cloneValues(params)
	query.Set("enterprise_customer_uuid", enterpriseID)

	var envelope dto.PageEnvelope[dto.SubsidyRequestPayload]
	if err := r.client.Get(ctx, path, query, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// Approve approves the given requests. The response carries no list data.
func (r *SubsidyRequestRepository) Approve(ctx context.Context, channel models.SubsidyChannel, payload dto.ApproveSubsidyRequestsPayload) error {
	path, err := requestCollectionPath(channel)
	if err != nil {
		return err
	}
	return r.client.Post(ctx, path+"approve/", payload, nil)
}

// Decline declines the given requests.
func (r *SubsidyRequestRepository) Decline(ctx context.Context, channel models.SubsidyChannel, payload dto.DeclineSubsidyRequestsPayload) error {
	path, err := requestCollectionPath(channel)
	if err != nil {
		return err
	}
	return r.client.Post(ctx, path+"decline/", payload, nil)
}

func cloneValues(values url.Values) url.Values {
	clone := make(url.Values, len(values)+1)
	for key, v := range values {
		clone[key] = append([]string(nil), v...)
	}
	return clone
}
