package service

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
)

// subsidyRequestSortColumns maps table column ids onto API ordering fields.
var subsidyRequestSortColumns = map[string]string{
	"email":       "user__email",
	"courseTitle": "course_title",
	"requestDate": "created",
	"status":      "state",
	"amount":      "course_price",
}

var subsidyRequestFilters = map[string]FilterSpec{
	"email":         {Param: "search", Kind: FilterSearch},
	"requestStatus": {Param: "state", Kind: FilterMultiSelect},
}

// RequestListViewConfig wires a per-channel request table.
type RequestListViewConfig struct {
	Channel      models.SubsidyChannel
	EnterpriseID string
	Requests     SubsidyRequestLister
	Overview     OverviewReader
	Debounce     time.Duration
	PageSize     int
	Logger       *zap.Logger
	Metrics      *MetricsService
}

// RequestListView is one channel's request table: a paginated controller plus the per-status chips.
type RequestListView struct {
	channel      models.SubsidyChannel
	enterpriseID string
	overview     OverviewReader
	logger       *zap.Logger
	controller   *PaginatedController[dto.SubsidyRequestPayload, models.SubsidyRequest]

	mu             sync.Mutex
	overviewCounts []models.OverviewCount
	listeners      map[uint64]func(dto.RequestListSnapshot)
	nextListener   uint64
	unsubscribe    func()
}

// NewRequestListView constructs the view. parent bounds every fetch the view issues.
func NewRequestListView(parent context.Context, cfg RequestListViewConfig) *RequestListView {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("channel", string(cfg.Channel)))

	channel := cfg.Channel
	enterpriseID := cfg.EnterpriseID
	requests := cfg.Requests

	view := &RequestListView{
		channel:        channel,
		enterpriseID:   enterpriseID,
		overview:       cfg.Overview,
		logger:         logger,
		overviewCounts: emptyOverview(),
		listeners:      make(map[uint64]func(dto.RequestListSnapshot)),
	}
	view.controller = NewPaginatedController(parent, PaginatedControllerConfig[dto.SubsidyRequestPayload, models.SubsidyRequest]{
		Resource: string(channel) + "_requests",
		Fetch: func(ctx context.Context, params url.Values) (*dto.PageEnvelope[dto.SubsidyRequestPayload], error) {
			return requests.List(ctx, channel, enterpriseID, params)
		},
		OnFetch: func(ctx context.Context, args models.FetchArgs) {
			if err := view.LoadOverview(ctx, args); err != nil {
				logger.Warn("failed to load request overview", zap.Error(err))
			}
		},
		Transform:       subsidyRequestFromPayload,
		SortColumns:     subsidyRequestSortColumns,
		Filters:         subsidyRequestFilters,
		DefaultPageSize: cfg.PageSize,
		Debounce:        cfg.Debounce,
		Logger:          logger,
		Metrics:         cfg.Metrics,
	})
	view.unsubscribe = view.controller.Subscribe(func(models.Page[models.SubsidyRequest]) {
		view.publish()
	})
	return view
}

// Channel returns the channel the view lists.
func (v *RequestListView) Channel() models.SubsidyChannel {
	return v.channel
}

// Configure forwards table state to the controller. The chips are refreshed with the debounced page fetch.
func (v *RequestListView) Configure(args models.FetchArgs) {
	v.controller.Configure(args)
}

// Reload refetches the current page and chips with the last table state.
func (v *RequestListView) Reload() {
	v.controller.Reload()
}

// LoadOverview fetches per-status counts for the filter chips. Search filters narrow the counts.
func (v *RequestListView) LoadOverview(ctx context.Context, args models.FetchArgs) error {
	if v.overview == nil {
		return nil
	}
	params := url.Values{}
	for _, filter := range args.Filters {
		spec, ok := subsidyRequestFilters[filter.ColumnID]
		if !ok || spec.Kind != FilterSearch {
			continue
		}
		if value, ok := filterValue(spec.Kind, filter.Values); ok {
			params.Set(spec.Param, value)
		}
	}

	payload, err := v.overview.Overview(ctx, v.channel, v.enterpriseID, params)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.overviewCounts = overviewFromPayload(payload)
	v.mu.Unlock()
	v.publish()
	return nil
}

// CheckTransition reports whether action is valid against the visible page without applying it.
func (v *RequestListView) CheckTransition(action RequestTransition) error {
	page := v.controller.State()
	v.mu.Lock()
	counts := v.overviewCounts
	v.mu.Unlock()
	_, err := TransitionRequests(RequestListState{Results: page.Results, OverviewCounts: counts}, action)
	return err
}

// Dispatch applies a local status transition to the visible page and the chips.
// The counts are swapped while the controller holds its rows so both change together.
func (v *RequestListView) Dispatch(action RequestTransition) error {
	var transitionErr error
	err := v.controller.MutateRows(func(rows []models.SubsidyRequest) []models.SubsidyRequest {
		v.mu.Lock()
		defer v.mu.Unlock()
		next, err := TransitionRequests(RequestListState{Results: rows, OverviewCounts: v.overviewCounts}, action)
		if err != nil {
			transitionErr = err
			return rows
		}
		v.overviewCounts = next.OverviewCounts
		return next.Results
	})
	if transitionErr != nil {
		v.logger.Error("rejected request transition", zap.Error(transitionErr))
		return transitionErr
	}
	return err
}

// Snapshot returns the current table state.
func (v *RequestListView) Snapshot() dto.RequestListSnapshot {
	page := v.controller.State()
	v.mu.Lock()
	counts := append([]models.OverviewCount(nil), v.overviewCounts...)
	v.mu.Unlock()
	return dto.RequestListSnapshot{Channel: v.channel, Page: page, OverviewCounts: counts}
}

// Subscribe registers fn for snapshot changes.
func (v *RequestListView) Subscribe(fn func(dto.RequestListSnapshot)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextListener
	v.nextListener++
	v.listeners[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

// Close stops the controller and drops listeners.
func (v *RequestListView) Close() {
	v.controller.Close()
	v.mu.Lock()
	v.listeners = map[uint64]func(dto.RequestListSnapshot){}
	unsubscribe := v.unsubscribe
	v.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (v *RequestListView) publish() {
	snapshot := v.Snapshot()
	v.mu.Lock()
	listeners := make([]func(dto.RequestListSnapshot), 0, len(v.listeners))
	for _, fn := range v.listeners {
		listeners = append(listeners, fn)
	}
	v.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func subsidyRequestFromPayload(p dto.SubsidyRequestPayload) models.SubsidyRequest {
	return models.SubsidyRequest{
		ID:           p.UUID,
		SubjectEmail: p.Email,
		CourseID:     p.CourseID,
		CourseTitle:  p.CourseTitle,
		Amount:       p.CoursePrice,
		CreatedAt:    p.Created,
		Status:       models.SubsidyRequestStatus(strings.ToLower(p.State)),
	}
}

func emptyOverview() []models.OverviewCount {
	counts := make([]models.OverviewCount, 0, len(models.SubsidyRequestStatuses))
	for _, status := range models.SubsidyRequestStatuses {
		counts = append(counts, models.OverviewCount{Status: status, Label: status.Label()})
	}
	return counts
}

// overviewFromPayload keeps every known bucket present so transitions never lose a count.
func overviewFromPayload(payload []dto.OverviewCountPayload) []models.OverviewCount {
	counts := emptyOverview()
	index := make(map[models.SubsidyRequestStatus]int, len(counts))
	for i, c := range counts {
		index[c.Status] = i
	}
	for _, entry := range payload {
		status := models.SubsidyRequestStatus(strings.ToLower(entry.State))
		if i, ok := index[status]; ok {
			counts[i].Count = entry.Count
			continue
		}
		counts = append(counts, models.OverviewCount{Status: status, Label: status.Label(), Count: entry.Count})
		index[status] = len(counts) - 1
	}
	return counts
}
