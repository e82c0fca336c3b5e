package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
	"github.com/noah-isme/subsidy-console-gateway/pkg/jobs"
)

// ReconcileJobType is the queue job type that persists an inferred subsidy channel.
const ReconcileJobType = "subsidy_configuration.reconcile"

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ConfigurationSnapshot is the store state observed by views.
type ConfigurationSnapshot struct {
	State         models.ConfigurationState
	Configuration *models.SubsidyRequestConfiguration
}

// SubsidyConfigurationStoreConfig wires the store.
type SubsidyConfigurationStoreConfig struct {
	EnterpriseID string
	API          SubsidyConfigurationAPI
	Inventory    SubsidyInventory
	Cache        *CacheService
	CacheTTL     time.Duration
	Reconciler   jobEnqueuer
	Logger       *zap.Logger
	OnChange     func()
}

// SubsidyConfigurationStore holds one enterprise's request configuration.
//
// State moves uninitialized → loading → present, detouring through creating when the
// enterprise has no configuration yet. Update always re-reads the resource bypassing
// the cache instead of trusting the PATCH response.
type SubsidyConfigurationStore struct {
	enterpriseID string
	api          SubsidyConfigurationAPI
	inventory    SubsidyInventory
	cache        *CacheService
	cacheTTL     time.Duration
	reconciler   jobEnqueuer
	logger       *zap.Logger
	onChange     func()

	mu     sync.Mutex
	state  models.ConfigurationState
	config *models.SubsidyRequestConfiguration
}

// NewSubsidyConfigurationStore constructs an uninitialized store.
func NewSubsidyConfigurationStore(cfg SubsidyConfigurationStoreConfig) *SubsidyConfigurationStore {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubsidyConfigurationStore{
		enterpriseID: cfg.EnterpriseID,
		api:          cfg.API,
		inventory:    cfg.Inventory,
		cache:        cfg.Cache,
		cacheTTL:     cfg.CacheTTL,
		reconciler:   cfg.Reconciler,
		logger:       logger.With(zap.String("enterprise_id", cfg.EnterpriseID)),
		onChange:     cfg.OnChange,
		state:        models.ConfigurationStateUninitialized,
	}
}

// Load fetches the configuration, creating it when none exists. eligible lists the
// channels the enterprise can fund; when it narrows to one and no channel is stored,
// that channel is persisted in the background.
func (s *SubsidyConfigurationStore) Load(ctx context.Context, eligible []models.SubsidyChannel) error {
	if s.enterpriseID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "enterprise id is required to load subsidy request configuration")
	}
	s.setState(models.ConfigurationStateLoading, nil)

	payload, err := s.fetch(ctx, false)
	switch {
	case err == nil:
		s.setState(models.ConfigurationStatePresent, configurationFromPayload(payload, s.logger))
	case appErrors.IsNotFound(err):
		if err := s.bootstrap(ctx); err != nil {
			return err
		}
	default:
		s.logger.Error("failed to load subsidy request configuration", zap.Error(err))
		s.setState(models.ConfigurationStateUninitialized, nil)
		return err
	}

	s.reconcile(ctx, eligible)
	return nil
}

// Update applies a partial update and re-reads the configuration from the server.
// Errors are returned so the caller can offer a retry; cached state is untouched on failure.
func (s *SubsidyConfigurationStore) Update(ctx context.Context, patch models.SubsidyConfigurationPatch) error {
	if snapshot := s.Snapshot(); snapshot.State != models.ConfigurationStatePresent {
		return appErrors.ErrConfigurationState
	}

	if _, err := s.api.Update(ctx, s.enterpriseID, patchPayload(patch)); err != nil {
		s.logger.Error("failed to update subsidy request configuration", zap.Error(err))
		return err
	}
	if err := s.cache.Invalidate(ctx, s.cacheKey()); err != nil {
		s.logger.Warn("failed to invalidate configuration cache", zap.Error(err))
	}

	payload, err := s.fetch(ctx, true)
	if err != nil {
		s.logger.Error("failed to refetch subsidy request configuration after update", zap.Error(err))
		return err
	}
	s.setState(models.ConfigurationStatePresent, configurationFromPayload(payload, s.logger))
	return nil
}

// Snapshot returns a copy of the store state.
func (s *SubsidyConfigurationStore) Snapshot() ConfigurationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := ConfigurationSnapshot{State: s.state}
	if s.config != nil {
		cfg := *s.config
		if s.config.SubsidyType != nil {
			channel := *s.config.SubsidyType
			cfg.SubsidyType = &channel
		}
		snapshot.Configuration = &cfg
	}
	return snapshot
}

func (s *SubsidyConfigurationStore) fetch(ctx context.Context, bypassCache bool) (*dto.SubsidyConfigurationPayload, error) {
	if !bypassCache {
		var cached dto.SubsidyConfigurationPayload
		if hit, _ := s.cache.Get(ctx, s.cacheKey(), &cached); hit {
			return &cached, nil
		}
	}

	payload, err := s.api.Get(ctx, s.enterpriseID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, s.cacheKey(), payload, s.cacheTTL)
	return payload, nil
}

func (s *SubsidyConfigurationStore) bootstrap(ctx context.Context) error {
	s.setState(models.ConfigurationStateCreating, nil)

	var (
		coupons  []dto.CouponPayload
		licenses []dto.LicenseSubscriptionPayload
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		coupons, err = s.inventory.ListCoupons(gctx, s.enterpriseID)
		return err
	})
	g.Go(func() error {
		var err error
		licenses, err = s.inventory.ListLicenseSubscriptions(gctx, s.enterpriseID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to look up subsidy inventory for configuration bootstrap", zap.Error(err))
		s.setState(models.ConfigurationStateUninitialized, nil)
		return err
	}

	channel := inferDefaultChannel(len(coupons) > 0, len(licenses) > 0)
	payload := dto.SubsidyConfigurationPayload{EnterpriseCustomerUUID: s.enterpriseID}
	if channel != nil {
		value := string(*channel)
		payload.SubsidyType = &value
	}

	created, err := s.api.Create(ctx, payload)
	if err != nil {
		s.logger.Error("failed to create subsidy request configuration", zap.Error(err))
		s.setState(models.ConfigurationStateUninitialized, nil)
		return err
	}
	_ = s.cache.Set(ctx, s.cacheKey(), created, s.cacheTTL)

	s.logger.Info("created subsidy request configuration", zap.Any("subsidy_type", payload.SubsidyType))
	s.setState(models.ConfigurationStatePresent, configurationFromPayload(created, s.logger))
	return nil
}

func (s *SubsidyConfigurationStore) reconcile(ctx context.Context, eligible []models.SubsidyChannel) {
	snapshot := s.Snapshot()
	if snapshot.Configuration == nil || snapshot.Configuration.SubsidyType != nil {
		return
	}
	channels := uniqueChannels(eligible)
	if len(channels) != 1 {
		return
	}
	channel := channels[0]

	if s.reconciler == nil {
		if err := s.Update(ctx, models.SubsidyConfigurationPatch{SubsidyType: &channel}); err != nil {
			s.logger.Warn("failed to persist inferred subsidy channel", zap.String("channel", string(channel)), zap.Error(err))
		}
		return
	}

	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    ReconcileJobType,
		Payload: ReconcileJob{Store: s, Channel: channel},
	}
	if err := s.reconciler.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue subsidy channel reconciliation", zap.String("channel", string(channel)), zap.Error(err))
	}
}

func (s *SubsidyConfigurationStore) setState(state models.ConfigurationState, cfg *models.SubsidyRequestConfiguration) {
	s.mu.Lock()
	s.state = state
	if cfg != nil || state != models.ConfigurationStatePresent {
		s.config = cfg
	}
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *SubsidyConfigurationStore) cacheKey() string {
	return "subsidy-configuration:" + s.enterpriseID
}

// ReconcileJob is the queue payload for background channel reconciliation.
type ReconcileJob struct {
	Store   *SubsidyConfigurationStore
	Channel models.SubsidyChannel
}

// HandleReconcileJob is the jobs.Handler for ReconcileJobType.
func HandleReconcileJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ReconcileJob)
	if !ok || payload.Store == nil {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.Type)
	}
	channel := payload.Channel
	return payload.Store.Update(ctx, models.SubsidyConfigurationPatch{SubsidyType: &channel})
}

// inferDefaultChannel picks the only channel the enterprise already funds, or nil when ambiguous.
func inferDefaultChannel(hasCoupons, hasLicenses bool) *models.SubsidyChannel {
	var channel models.SubsidyChannel
	switch {
	case hasCoupons && hasLicenses:
		return nil
	case hasLicenses:
		channel = models.SubsidyChannelLicense
	case hasCoupons:
		channel = models.SubsidyChannelCoupon
	default:
		return nil
	}
	return &channel
}

func uniqueChannels(channels []models.SubsidyChannel) []models.SubsidyChannel {
	seen := make(map[models.SubsidyChannel]struct{}, len(channels))
	result := make([]models.SubsidyChannel, 0, len(channels))
	for _, channel := range channels {
		if _, ok := seen[channel]; ok {
			continue
		}
		seen[channel] = struct{}{}
		result = append(result, channel)
	}
	return result
}

func configurationFromPayload(payload *dto.SubsidyConfigurationPayload, logger *zap.Logger) *models.SubsidyRequestConfiguration {
	cfg := &models.SubsidyRequestConfiguration{
		EnterpriseID:    payload.EnterpriseCustomerUUID,
		RequestsEnabled: payload.SubsidyRequestsEnabled,
	}
	if payload.SubsidyType != nil {
		if channel, ok := models.ParseSubsidyChannel(*payload.SubsidyType); ok {
			cfg.SubsidyType = &channel
		} else {
			logger.Warn("ignoring unknown subsidy type", zap.String("subsidy_type", *payload.SubsidyType))
		}
	}
	return cfg
}

func patchPayload(patch models.SubsidyConfigurationPatch) dto.SubsidyConfigurationPatchPayload {
	payload := dto.SubsidyConfigurationPatchPayload{}
	if patch.RequestsEnabled != nil {
		payload["subsidy_requests_enabled"] = *patch.RequestsEnabled
	}
	switch {
	case patch.ClearSubsidyType:
		payload["subsidy_type"] = nil
	case patch.SubsidyType != nil:
		payload["subsidy_type"] = string(*patch.SubsidyType)
	}
	return payload
}
