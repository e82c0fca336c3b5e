package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
)

// SubsidyRequestsContext is the shared state every view of a console session observes.
// Views hold the same instance, so a mutation through one is visible to all.
type SubsidyRequestsContext interface {
	Snapshot() dto.SubsidyRequestsSnapshot
	Load(ctx context.Context, eligible []models.SubsidyChannel) error
	RefreshOverview(ctx context.Context) error
	DecrementOverview(channel models.SubsidyChannel)
	UpdateConfiguration(ctx context.Context, patch models.SubsidyConfigurationPatch) error
	Subscribe(fn func(dto.SubsidyRequestsSnapshot)) func()
	Close()
}

// SubsidyRequestsProviderConfig wires a live provider.
type SubsidyRequestsProviderConfig struct {
	EnterpriseID  string
	Configuration SubsidyConfigurationAPI
	Inventory     SubsidyInventory
	Overview      OverviewReader
	Cache         *CacheService
	CacheTTL      time.Duration
	Reconciler    jobEnqueuer
	Logger        *zap.Logger
	Metrics       *MetricsService
}

// SubsidyRequestsProvider composes the configuration store and the overview counter.
type SubsidyRequestsProvider struct {
	store   *SubsidyConfigurationStore
	counter *OverviewCounter
	logger  *zap.Logger

	mu           sync.Mutex
	version      uint64
	closed       bool
	listeners    map[uint64]func(dto.SubsidyRequestsSnapshot)
	nextListener uint64
}

// NewSubsidyRequestsProvider constructs a live provider. Nothing is fetched until Load.
func NewSubsidyRequestsProvider(cfg SubsidyRequestsProviderConfig) *SubsidyRequestsProvider {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &SubsidyRequestsProvider{
		logger:    logger,
		listeners: make(map[uint64]func(dto.SubsidyRequestsSnapshot)),
	}
	p.store = NewSubsidyConfigurationStore(SubsidyConfigurationStoreConfig{
		EnterpriseID: cfg.EnterpriseID,
		API:          cfg.Configuration,
		Inventory:    cfg.Inventory,
		Cache:        cfg.Cache,
		CacheTTL:     cfg.CacheTTL,
		Reconciler:   cfg.Reconciler,
		Logger:       logger,
		OnChange:     p.changed,
	})
	p.counter = NewOverviewCounter(cfg.EnterpriseID, cfg.Overview, logger, cfg.Metrics, p.changed)
	return p
}

// Load fetches the configuration and the overview counts concurrently.
// Both are attempted even when one fails; the first error is returned.
func (p *SubsidyRequestsProvider) Load(ctx context.Context, eligible []models.SubsidyChannel) error {
	var g errgroup.Group
	g.Go(func() error { return p.store.Load(ctx, eligible) })
	g.Go(func() error { return p.counter.Refresh(ctx) })
	return g.Wait()
}

// RefreshOverview re-reads the badge counts from the server.
func (p *SubsidyRequestsProvider) RefreshOverview(ctx context.Context) error {
	return p.counter.Refresh(ctx)
}

// DecrementOverview lowers a channel's badge by one after a completed admin action.
func (p *SubsidyRequestsProvider) DecrementOverview(channel models.SubsidyChannel) {
	p.counter.Decrement(channel)
}

// UpdateConfiguration forwards a partial update to the configuration store.
func (p *SubsidyRequestsProvider) UpdateConfiguration(ctx context.Context, patch models.SubsidyConfigurationPatch) error {
	return p.store.Update(ctx, patch)
}

// Snapshot composes the current store and counter state.
func (p *SubsidyRequestsProvider) Snapshot() dto.SubsidyRequestsSnapshot {
	cfg := p.store.Snapshot()
	overview := p.counter.Snapshot()
	p.mu.Lock()
	version := p.version
	p.mu.Unlock()

	snapshot := dto.SubsidyRequestsSnapshot{
		ConfigurationState: cfg.State,
		Configuration:      cfg.Configuration,
		IsLoadingOverview:  overview.IsLoading,
		RequestsOverview:   overview.Counts,
		Version:            version,
	}
	if cfg.Configuration != nil {
		snapshot.RequestsEnabled = cfg.Configuration.RequestsEnabled
	}
	return snapshot
}

// Subscribe registers fn for every change and returns the matching unsubscribe.
func (p *SubsidyRequestsProvider) Subscribe(fn func(dto.SubsidyRequestsSnapshot)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return func() {}
	}
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// Close drops every listener; later changes are not published.
func (p *SubsidyRequestsProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.listeners = map[uint64]func(dto.SubsidyRequestsSnapshot){}
}

func (p *SubsidyRequestsProvider) changed() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.version++
	listeners := make([]func(dto.SubsidyRequestsSnapshot), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	if len(listeners) == 0 {
		return
	}
	snapshot := p.Snapshot()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

// disabledSubsidyRequests stands in when the workflow is off for an enterprise.
// It never touches the network and ignores every mutation.
type disabledSubsidyRequests struct{}

// NewDisabledSubsidyRequests returns the inert provider.
func NewDisabledSubsidyRequests() SubsidyRequestsContext {
	return disabledSubsidyRequests{}
}

func (disabledSubsidyRequests) Snapshot() dto.SubsidyRequestsSnapshot {
	counts := make(map[models.SubsidyChannel]int, len(models.SubsidyChannels))
	for _, channel := range models.SubsidyChannels {
		counts[channel] = 0
	}
	return dto.SubsidyRequestsSnapshot{
		RequestsEnabled:    false,
		ConfigurationState: models.ConfigurationStateUninitialized,
		RequestsOverview:   counts,
	}
}

func (disabledSubsidyRequests) Load(context.Context, []models.SubsidyChannel) error { return nil }

func (disabledSubsidyRequests) RefreshOverview(context.Context) error { return nil }

func (disabledSubsidyRequests) DecrementOverview(models.SubsidyChannel) {}

func (disabledSubsidyRequests) UpdateConfiguration(context.Context, models.SubsidyConfigurationPatch) error {
	return nil
}

func (disabledSubsidyRequests) Subscribe(func(dto.SubsidyRequestsSnapshot)) func() { return func() {} }

func (disabledSubsidyRequests) Close() {}
