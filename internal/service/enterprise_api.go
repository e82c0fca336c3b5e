package service

import (
	"context"
	"net/url"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
)

// SubsidyRequestLister reads one page of a channel's requests.
type SubsidyRequestLister interface {
	List(ctx context.Context, channel models.SubsidyChannel, enterpriseID string, params url.Values) (*dto.PageEnvelope[dto.SubsidyRequestPayload], error)
}

// SubsidyRequestAPI lists and acts on requests.
type SubsidyRequestAPI interface {
	SubsidyRequestLister
	Approve(ctx context.Context, channel models.SubsidyChannel, payload dto.ApproveSubsidyRequestsPayload) error
	Decline(ctx context.Context, channel models.SubsidyChannel, payload dto.DeclineSubsidyRequestsPayload) error
}

// OverviewReader reads per-state tallies for a channel.
type OverviewReader interface {
	Overview(ctx context.Context, channel models.SubsidyChannel, enterpriseID string, params url.Values) ([]dto.OverviewCountPayload, error)
}

// SubsidyConfigurationAPI reads and writes the per-enterprise configuration.
type SubsidyConfigurationAPI interface {
	Get(ctx context.Context, enterpriseID string) (*dto.SubsidyConfigurationPayload, error)
	Create(ctx context.Context, payload dto.SubsidyConfigurationPayload) (*dto.SubsidyConfigurationPayload, error)
	Update(ctx context.Context, enterpriseID string, patch dto.SubsidyConfigurationPatchPayload) (*dto.SubsidyConfigurationPayload, error)
}

// SubsidyInventory looks up existing coupon batches and license subscriptions.
type SubsidyInventory interface {
	ListCoupons(ctx context.Context, enterpriseID string) ([]dto.CouponPayload, error)
	ListLicenseSubscriptions(ctx context.Context, enterpriseID string) ([]dto.LicenseSubscriptionPayload, error)
}

// LicenseAssignmentLister pages through learner licenses.
type LicenseAssignmentLister interface {
	List(ctx context.Context, enterpriseID string, params url.Values) (*dto.PageEnvelope[dto.LicenseAssignmentPayload], error)
}

// EnterpriseAPI bundles the enterprise API collaborators a session talks to.
type EnterpriseAPI struct {
	Requests      SubsidyRequestAPI
	Overview      OverviewReader
	Configuration SubsidyConfigurationAPI
	Inventory     SubsidyInventory
	Licenses      LicenseAssignmentLister
}

// EnterpriseAPIFactory builds collaborators authenticated as the caller's token.
type EnterpriseAPIFactory func(token string) EnterpriseAPI
