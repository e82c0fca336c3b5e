package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
)

// InventoryRepository looks up the subsidies an enterprise already owns.
type InventoryRepository struct {
	client *APIClient
}

// NewInventoryRepository constructs the repository.
func NewInventoryRepository(client *APIClient) *InventoryRepository {
	return &InventoryRepository{client: client}
}

// ListCoupons returns the first page of coupon batches.
func (r *InventoryRepository) ListCoupons(ctx context.Context, enterpriseID string) ([]dto.CouponPayload, error) {
	path := fmt.Sprintf("/api/v2/enterprise/coupons/%s/overview/", url.PathEscape(enterpriseID))
	query := url.Values{"page": {"1"}, "page_size": {"100"}}

	var envelope dto.PageEnvelope[dto.CouponPayload]
	if err := r.client.Get(ctx, path, query, &envelope); err != nil {
		return nil, err
	}
	return envelope.Results, nil
}

// ListLicenseSubscriptions returns the enterprise's subscription plans.
func (r *InventoryRepository) ListLicenseSubscriptions(ctx context.Context, enterpriseID string) ([]dto.LicenseSubscriptionPayload, error) {
	query := url.Values{"enterprise_customer_uuid": {enterpriseID}}

	var envelope dto.PageEnvelope[dto.LicenseSubscriptionPayload]
	if err := r.client.Get(ctx, "/api/v1/subscriptions/", query, &envelope); err != nil {
		return nil, err
	}
	return envelope.Results, nil
}
