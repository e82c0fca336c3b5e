package service

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/subsidy-console-gateway/internal/models"
)

// OverviewSnapshot is the badge state for both channels.
type OverviewSnapshot struct {
	IsLoading bool
	Counts    map[models.SubsidyChannel]int
}

// OverviewCounter caches how many requests await action per channel.
//
// Refresh is the only way back to server truth. Decrement is local and trusts its
// caller to invoke it once per completed admin action.
type OverviewCounter struct {
	enterpriseID string
	overview     OverviewReader
	logger       *zap.Logger
	metrics      *MetricsService
	onChange     func()

	mu        sync.Mutex
	isLoading bool
	counts    map[models.SubsidyChannel]int
}

// NewOverviewCounter constructs a counter. onChange fires after every state change.
func NewOverviewCounter(enterpriseID string, overview OverviewReader, logger *zap.Logger, metrics *MetricsService, onChange func()) *OverviewCounter {
	if logger == nil {
		logger = zap.NewNop()
	}
	counts := make(map[models.SubsidyChannel]int, len(models.SubsidyChannels))
	for _, channel := range models.SubsidyChannels {
		counts[channel] = 0
	}
	return &OverviewCounter{
		enterpriseID: enterpriseID,
		overview:     overview,
		logger:       logger,
		metrics:      metrics,
		onChange:     onChange,
		counts:       counts,
	}
}

// Refresh fetches both channels in parallel and replaces the cached counts.
// On failure the cached counts are left as they were.
func (c *OverviewCounter) Refresh(ctx context.Context) error {
	c.setLoading(true)

	results := make([]int, len(models.SubsidyChannels))
	g, gctx := errgroup.WithContext(ctx)
	for i, channel := range models.SubsidyChannels {
		i, channel := i, channel
		g.Go(func() error {
			payload, err := c.overview.Overview(gctx, channel, c.enterpriseID, url.Values{})
			if err != nil {
				return err
			}
			for _, entry := range payload {
				if models.SubsidyRequestStatus(strings.ToLower(entry.State)) == models.SubsidyRequestStatusRequested {
					results[i] = entry.Count
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.Error("failed to refresh requests overview", zap.String("enterprise_id", c.enterpriseID), zap.Error(err))
		c.setLoading(false)
		return err
	}

	c.mu.Lock()
	for i, channel := range models.SubsidyChannels {
		c.counts[channel] = results[i]
	}
	c.isLoading = false
	c.mu.Unlock()
	c.changed()
	return nil
}

// Decrement lowers one channel's count by one without a network call.
func (c *OverviewCounter) Decrement(channel models.SubsidyChannel) {
	c.mu.Lock()
	c.counts[channel]--
	value := c.counts[channel]
	c.mu.Unlock()

	if value < 0 {
		// Not clamped; surfaced so drift between badge and server is visible.
		c.logger.Warn("requests overview went negative", zap.String("channel", string(channel)), zap.Int("count", value))
		c.metrics.RecordNegativeOverview(string(channel))
	}
	c.changed()
}

// Snapshot returns a copy of the current state.
func (c *OverviewCounter) Snapshot() OverviewSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[models.SubsidyChannel]int, len(c.counts))
	for channel, count := range c.counts {
		counts[channel] = count
	}
	return OverviewSnapshot{IsLoading: c.isLoading, Counts: counts}
}

func (c *OverviewCounter) setLoading(loading bool) {
	c.mu.Lock()
	c.isLoading = loading
	c.mu.Unlock()
	c.changed()
}

func (c *OverviewCounter) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
