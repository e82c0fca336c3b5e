package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
)

const (
	defaultListDebounce = 250 * time.Millisecond
	defaultListPageSize = 25

	fetchOutcomeOK    = "ok"
	fetchOutcomeError = "error"
	fetchOutcomeStale = "stale"
)

// FilterKind selects how a column filter is translated into query parameters.
type FilterKind int

const (
	// FilterSearch sends the first non-empty value as free text.
	FilterSearch FilterKind = iota
	// FilterMultiSelect sends every non-empty value as a comma separated list.
	FilterMultiSelect
	// FilterToggle sends "true" when the first value is truthy and omits the parameter otherwise.
	FilterToggle
)

// FilterSpec binds a UI filter id to a query parameter.
type FilterSpec struct {
	Param string
	Kind  FilterKind
}

// PageFetcher issues the network call for one page.
type PageFetcher[W any] func(ctx context.Context, params url.Values) (*dto.PageEnvelope[W], error)

// PaginatedControllerConfig describes one paginated resource.
type PaginatedControllerConfig[W, T any] struct {
	Resource  string
	Fetch     PageFetcher[W]
	Transform func(W) T
	Include   func(T) bool
	// OnFetch runs with the arguments of every fetch that survives the debounce window.
	OnFetch         func(ctx context.Context, args models.FetchArgs)
	SortColumns     map[string]string
	Filters         map[string]FilterSpec
	DefaultPageSize int
	Debounce        time.Duration
	Logger          *zap.Logger
	Metrics         *MetricsService
}

// PaginatedController debounces table state changes into page fetches and holds the resulting page.
//
// Every issued fetch is tagged with a generation; only the response for the latest
// generation is applied. Close stops the controller: pending timers are dropped,
// in-flight requests are cancelled and late responses are ignored.
type PaginatedController[W, T any] struct {
	cfg    PaginatedControllerConfig[W, T]
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	state        models.Page[T]
	generation   uint64
	lastArgs     *models.FetchArgs
	timer        *time.Timer
	closed       bool
	listeners    map[uint64]func(models.Page[T])
	nextListener uint64
}

// NewPaginatedController builds a controller. The parent context bounds every fetch it issues.
func NewPaginatedController[W, T any](parent context.Context, cfg PaginatedControllerConfig[W, T]) *PaginatedController[W, T] {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultListDebounce
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaultListPageSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &PaginatedController[W, T]{
		cfg:       cfg,
		logger:    logger.With(zap.String("resource", cfg.Resource)),
		ctx:       ctx,
		cancel:    cancel,
		state:     models.Page[T]{Results: []T{}},
		listeners: make(map[uint64]func(models.Page[T])),
	}
}

// Configure schedules a fetch for args. Calls arriving within the debounce window replace each other.
func (c *PaginatedController[W, T]) Configure(args models.FetchArgs) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.generation++
	gen := c.generation
	argsCopy := args
	c.lastArgs = &argsCopy
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.cfg.Debounce, func() {
		c.fetch(gen, argsCopy)
	})
}

// Reload re-issues the most recent arguments. It is a no-op before the first Configure.
func (c *PaginatedController[W, T]) Reload() {
	c.mu.Lock()
	last := c.lastArgs
	c.mu.Unlock()
	if last == nil {
		return
	}
	c.Configure(*last)
}

// State returns a copy of the current page.
func (c *PaginatedController[W, T]) State() models.Page[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// MutateRows rewrites fields of the rows currently on the page. Rows cannot be added or removed.
func (c *PaginatedController[W, T]) MutateRows(fn func(rows []T) []T) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	rows := append([]T(nil), c.state.Results...)
	next := fn(rows)
	if len(next) != len(c.state.Results) {
		c.mu.Unlock()
		c.logger.Error("row mutation changed page size",
			zap.Int("before", len(c.state.Results)),
			zap.Int("after", len(next)),
		)
		return appErrors.ErrInvalidMutation
	}
	c.state.Results = next
	snapshot := c.snapshotLocked()
	listeners := c.listenersLocked()
	c.mu.Unlock()

	notifyPage(listeners, snapshot)
	return nil
}

// Subscribe registers fn for state changes and returns a function that removes it.
func (c *PaginatedController[W, T]) Subscribe(fn func(models.Page[T])) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Close stops the controller. It is safe to call more than once.
func (c *PaginatedController[W, T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.listeners = map[uint64]func(models.Page[T]){}
	c.cancel()
}

func (c *PaginatedController[W, T]) fetch(gen uint64, args models.FetchArgs) {
	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.state.IsLoading = true
	snapshot := c.snapshotLocked()
	listeners := c.listenersLocked()
	c.mu.Unlock()
	notifyPage(listeners, snapshot)

	if c.cfg.OnFetch != nil {
		c.cfg.OnFetch(c.ctx, args)
	}
	params := c.buildParams(args)
	start := time.Now()
	envelope, err := c.cfg.Fetch(c.ctx, params)
	duration := time.Since(start)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("discarding response for closed controller", zap.Uint64("generation", gen))
		return
	}
	if gen != c.generation {
		c.mu.Unlock()
		c.cfg.Metrics.ObserveListFetch(c.cfg.Resource, fetchOutcomeStale, duration)
		c.logger.Debug("discarding superseded response", zap.Uint64("generation", gen))
		return
	}

	if err != nil {
		c.state = models.Page[T]{Results: []T{}}
		c.cfg.Metrics.ObserveListFetch(c.cfg.Resource, fetchOutcomeError, duration)
		c.logger.Error("failed to fetch page", zap.String("query", params.Encode()), zap.Error(err))
	} else {
		c.state = c.transform(envelope)
		c.cfg.Metrics.ObserveListFetch(c.cfg.Resource, fetchOutcomeOK, duration)
	}
	c.state.IsLoading = false
	snapshot = c.snapshotLocked()
	listeners = c.listenersLocked()
	c.mu.Unlock()

	notifyPage(listeners, snapshot)
}

func (c *PaginatedController[W, T]) transform(envelope *dto.PageEnvelope[W]) models.Page[T] {
	page := models.Page[T]{Results: []T{}}
	if envelope == nil {
		return page
	}
	page.ItemCount = envelope.Count
	page.PageCount = envelope.NumPages
	for _, raw := range envelope.Results {
		row := c.cfg.Transform(raw)
		if c.cfg.Include != nil && !c.cfg.Include(row) {
			continue
		}
		page.Results = append(page.Results, row)
	}
	return page
}

func (c *PaginatedController[W, T]) buildParams(args models.FetchArgs) url.Values {
	params := url.Values{}
	pageIndex := args.PageIndex
	if pageIndex < 0 {
		pageIndex = 0
	}
	pageSize := args.PageSize
	if pageSize <= 0 {
		pageSize = c.cfg.DefaultPageSize
	}
	params.Set("page", strconv.Itoa(pageIndex+1))
	params.Set("page_size", strconv.Itoa(pageSize))

	ordering := make([]string, 0, len(args.SortBy))
	for _, sort := range args.SortBy {
		field, ok := c.cfg.SortColumns[sort.ColumnID]
		if !ok {
			c.logger.Error("no api field mapped for sort column", zap.String("column", sort.ColumnID))
			continue
		}
		if sort.Descending {
			field = "-" + field
		}
		ordering = append(ordering, field)
	}
	if len(ordering) > 0 {
		params.Set("ordering", strings.Join(ordering, ","))
	}

	for _, filter := range args.Filters {
		spec, ok := c.cfg.Filters[filter.ColumnID]
		if !ok {
			c.logger.Warn("ignoring filter for unknown column", zap.String("column", filter.ColumnID))
			continue
		}
		if value, ok := filterValue(spec.Kind, filter.Values); ok {
			params.Set(spec.Param, value)
		}
	}
	return params
}

func filterValue(kind FilterKind, values []string) (string, bool) {
	nonEmpty := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			nonEmpty = append(nonEmpty, trimmed)
		}
	}
	if len(nonEmpty) == 0 {
		return "", false
	}
	switch kind {
	case FilterMultiSelect:
		return strings.Join(nonEmpty, ","), true
	case FilterToggle:
		enabled, err := strconv.ParseBool(nonEmpty[0])
		if err != nil || !enabled {
			return "", false
		}
		return "true", true
	default:
		return nonEmpty[0], true
	}
}

func (c *PaginatedController[W, T]) snapshotLocked() models.Page[T] {
	snapshot := c.state
	snapshot.Results = append(make([]T, 0, len(c.state.Results)), c.state.Results...)
	return snapshot
}

func (c *PaginatedController[W, T]) listenersLocked() []func(models.Page[T]) {
	listeners := make([]func(models.Page[T]), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}

func notifyPage[T any](listeners []func(models.Page[T]), page models.Page[T]) {
	for _, fn := range listeners {
		fn(page)
	}
}
