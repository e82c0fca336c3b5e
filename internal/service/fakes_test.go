package service

import (
	"context"
	"encoding/json"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
	"github.com/noah-isme/subsidy-console-gateway/pkg/jobs"
)

// fakeEnterpriseAPI stands in for every enterprise API repository.
type fakeEnterpriseAPI struct {
	mu sync.Mutex

	pages       map[models.SubsidyChannel]*dto.PageEnvelope[dto.SubsidyRequestPayload]
	listErr     error
	listParams  []url.Values
	overviews   map[models.SubsidyChannel][]dto.OverviewCountPayload
	overviewErr error
	approveErr  error
	declineErr  error
	approvals   []dto.ApproveSubsidyRequestsPayload
	declines    []dto.DeclineSubsidyRequestsPayload

	config       *dto.SubsidyConfigurationPayload
	getErr       error
	getCalls     int
	created      []dto.SubsidyConfigurationPayload
	createErr    error
	patches      []dto.SubsidyConfigurationPatchPayload
	updateErr    error
	coupons      []dto.CouponPayload
	licenses     []dto.LicenseSubscriptionPayload
	inventoryErr error

	assignments *dto.PageEnvelope[dto.LicenseAssignmentPayload]
}

func newFakeEnterpriseAPI() *fakeEnterpriseAPI {
	return &fakeEnterpriseAPI{
		pages:     map[models.SubsidyChannel]*dto.PageEnvelope[dto.SubsidyRequestPayload]{},
		overviews: map[models.SubsidyChannel][]dto.OverviewCountPayload{},
	}
}

func (f *fakeEnterpriseAPI) bundle() EnterpriseAPI {
	return EnterpriseAPI{Requests: f, Overview: f, Configuration: f, Inventory: f, Licenses: licenseLister{f}}
}

func (f *fakeEnterpriseAPI) List(ctx context.Context, channel models.SubsidyChannel, enterpriseID string, params url.Values) (*dto.PageEnvelope[dto.SubsidyRequestPayload], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listParams = append(f.listParams, params)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if page, ok := f.pages[channel]; ok {
		return page, nil
	}
	return &dto.PageEnvelope[dto.SubsidyRequestPayload]{}, nil
}

func (f *fakeEnterpriseAPI) Approve(ctx context.Context, channel models.SubsidyChannel, payload dto.ApproveSubsidyRequestsPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.approveErr != nil {
		return f.approveErr
	}
	f.approvals = append(f.approvals, payload)
	return nil
}

func (f *fakeEnterpriseAPI) Decline(ctx context.Context, channel models.SubsidyChannel, payload dto.DeclineSubsidyRequestsPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.declineErr != nil {
		return f.declineErr
	}
	f.declines = append(f.declines, payload)
	return nil
}

func (f *fakeEnterpriseAPI) Overview(ctx context.Context, channel models.SubsidyChannel, enterpriseID string, params url.Values) ([]dto.OverviewCountPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.overviewErr != nil {
		return nil, f.overviewErr
	}
	return f.overviews[channel], nil
}

func (f *fakeEnterpriseAPI) Get(ctx context.Context, enterpriseID string) (*dto.SubsidyConfigurationPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.config == nil {
		return nil, appErrors.ErrNotFound
	}
	cfg := *f.config
	return &cfg, nil
}

func (f *fakeEnterpriseAPI) Create(ctx context.Context, payload dto.SubsidyConfigurationPayload) (*dto.SubsidyConfigurationPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, payload)
	cfg := payload
	f.config = &cfg
	return &payload, nil
}

func (f *fakeEnterpriseAPI) Update(ctx context.Context, enterpriseID string, patch dto.SubsidyConfigurationPatchPayload) (*dto.SubsidyConfigurationPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.patches = append(f.patches, patch)
	if f.config == nil {
		f.config = &dto.SubsidyConfigurationPayload{EnterpriseCustomerUUID: enterpriseID}
	}
	if enabled, ok := patch["subsidy_requests_enabled"].(bool); ok {
		f.config.SubsidyRequestsEnabled = enabled
	}
	if value, ok := patch["subsidy_type"]; ok {
		if s, ok := value.(string); ok {
			f.config.SubsidyType = &s
		} else {
			f.config.SubsidyType = nil
		}
	}
	// The PATCH response is deliberately stale so callers must refetch.
	return &dto.SubsidyConfigurationPayload{EnterpriseCustomerUUID: enterpriseID}, nil
}

func (f *fakeEnterpriseAPI) ListCoupons(ctx context.Context, enterpriseID string) ([]dto.CouponPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.coupons, f.inventoryErr
}

func (f *fakeEnterpriseAPI) ListLicenseSubscriptions(ctx context.Context, enterpriseID string) ([]dto.LicenseSubscriptionPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.licenses, f.inventoryErr
}

func (f *fakeEnterpriseAPI) setConfig(cfg *dto.SubsidyConfigurationPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config = cfg
}

func (f *fakeEnterpriseAPI) approvalCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.approvals)
}

// licenseLister adapts the fake to LicenseAssignmentLister, whose List signature differs.
type licenseLister struct{ f *fakeEnterpriseAPI }

func (l licenseLister) List(ctx context.Context, enterpriseID string, params url.Values) (*dto.PageEnvelope[dto.LicenseAssignmentPayload], error) {
	l.f.mu.Lock()
	defer l.f.mu.Unlock()
	if l.f.assignments == nil {
		return &dto.PageEnvelope[dto.LicenseAssignmentPayload]{}, nil
	}
	return l.f.assignments, nil
}

type recordingEnqueuer struct {
	mu   sync.Mutex
	jobs []string
	err  error
}

func (r *recordingEnqueuer) Enqueue(job jobs.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, job.Type)
	return nil
}

func strPtr(s string) *string { return &s }

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}
