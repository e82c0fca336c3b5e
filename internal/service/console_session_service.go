package service

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	"github.com/noah-isme/subsidy-console-gateway/pkg/config"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
)

const defaultSessionIdleTTL = 30 * time.Minute

var licenseAssignmentSortColumns = map[string]string{
	"email":          "user_email",
	"status":         "status",
	"activationDate": "activation_date",
	"lastRemindDate": "last_remind_date",
}

var licenseAssignmentFilters = map[string]FilterSpec{
	"email":          {Param: "user_email", Kind: FilterSearch},
	"status":         {Param: "status_in", Kind: FilterMultiSelect},
	"recentlyActive": {Param: "recently_active", Kind: FilterToggle},
}

// LicenseAssignmentController pages through activated learner licenses.
type LicenseAssignmentController = PaginatedController[dto.LicenseAssignmentPayload, models.LicenseAssignment]

// ConsoleSession is the state behind one mounted console subtree.
type ConsoleSession struct {
	Info     models.ConsoleSessionInfo
	Provider SubsidyRequestsContext
	Licenses *LicenseAssignmentController

	api          EnterpriseAPI
	enabled      bool
	requestViews map[models.SubsidyChannel]*RequestListView
	ctx          context.Context
	cancel       context.CancelFunc
	lastSeen     atomic.Int64
	closeOnce    sync.Once
}

// RequestView returns the list view for channel. Views only exist when subsidy requests are enabled.
func (s *ConsoleSession) RequestView(channel models.SubsidyChannel) (*RequestListView, bool) {
	view, ok := s.requestViews[channel]
	return view, ok
}

// SubsidyRequestsEnabled reports whether the session runs the live provider.
func (s *ConsoleSession) SubsidyRequestsEnabled() bool {
	return s.enabled
}

// Done is closed once the session is unmounted or swept.
func (s *ConsoleSession) Done() <-chan struct{} {
	return s.ctx.Done()
}

// ReloadTables refetches every table that has been configured.
func (s *ConsoleSession) ReloadTables() {
	for _, view := range s.requestViews {
		view.Reload()
	}
	s.Licenses.Reload()
}

// Touch marks the session as in use.
func (s *ConsoleSession) Touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen reports when the session was last used.
func (s *ConsoleSession) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *ConsoleSession) close() {
	s.closeOnce.Do(func() {
		for _, view := range s.requestViews {
			view.Close()
		}
		s.Licenses.Close()
		s.Provider.Close()
		s.cancel()
	})
}

// ConsoleSessionServiceConfig wires the session registry.
type ConsoleSessionServiceConfig struct {
	APIFactory      EnterpriseAPIFactory
	SubsidyRequests config.SubsidyRequestsConfig
	Lists           config.ListConfig
	Cache           *CacheService
	CacheTTL        time.Duration
	Reconciler      jobEnqueuer
	IdleTTL         time.Duration
	Logger          *zap.Logger
	Metrics         *MetricsService
}

// ConsoleSessionService keeps the mounted console sessions in memory.
type ConsoleSessionService struct {
	cfg     ConsoleSessionServiceConfig
	logger  *zap.Logger
	metrics *MetricsService

	mu       sync.RWMutex
	sessions map[string]*ConsoleSession
}

// NewConsoleSessionService constructs an empty registry.
func NewConsoleSessionService(cfg ConsoleSessionServiceConfig) *ConsoleSessionService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultSessionIdleTTL
	}
	return &ConsoleSessionService{
		cfg:      cfg,
		logger:   logger,
		metrics:  cfg.Metrics,
		sessions: make(map[string]*ConsoleSession),
	}
}

// Mount creates a session for the caller and loads the shared subsidy request state.
// Load failures leave the configuration uninitialized; the session is still returned.
func (s *ConsoleSessionService) Mount(ctx context.Context, claims *models.JWTClaims, token string, eligible []models.SubsidyChannel) (*ConsoleSession, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.EnterpriseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enterprise id is required to mount a console session")
	}
	if s.cfg.APIFactory == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "enterprise api is not configured")
	}

	api := s.cfg.APIFactory(token)
	sessionCtx, cancel := context.WithCancel(context.Background())
	session := &ConsoleSession{
		Info: models.ConsoleSessionInfo{
			ID:           uuid.NewString(),
			EnterpriseID: claims.EnterpriseID,
			UserID:       claims.UserID,
			MountedAt:    time.Now().UTC(),
		},
		api:          api,
		enabled:      s.cfg.SubsidyRequests.EnabledFor(claims.EnterpriseID),
		requestViews: make(map[models.SubsidyChannel]*RequestListView, len(models.SubsidyChannels)),
		ctx:          sessionCtx,
		cancel:       cancel,
	}
	session.Touch()
	logger := s.logger.With(zap.String("session_id", session.Info.ID), zap.String("enterprise_id", claims.EnterpriseID))

	if session.enabled {
		session.Provider = NewSubsidyRequestsProvider(SubsidyRequestsProviderConfig{
			EnterpriseID:  claims.EnterpriseID,
			Configuration: api.Configuration,
			Inventory:     api.Inventory,
			Overview:      api.Overview,
			Cache:         s.cfg.Cache,
			CacheTTL:      s.cfg.CacheTTL,
			Reconciler:    s.cfg.Reconciler,
			Logger:        logger,
			Metrics:       s.metrics,
		})
		for _, channel := range models.SubsidyChannels {
			session.requestViews[channel] = NewRequestListView(sessionCtx, RequestListViewConfig{
				Channel:      channel,
				EnterpriseID: claims.EnterpriseID,
				Requests:     api.Requests,
				Overview:     api.Overview,
				Debounce:     s.cfg.Lists.Debounce,
				PageSize:     s.cfg.Lists.PageSize,
				Logger:       logger,
				Metrics:      s.metrics,
			})
		}
	} else {
		session.Provider = NewDisabledSubsidyRequests()
	}
	session.Licenses = s.newLicenseController(sessionCtx, claims.EnterpriseID, api.Licenses, logger)

	if err := session.Provider.Load(ctx, eligible); err != nil {
		logger.Warn("console session mounted with incomplete subsidy request state", zap.Error(err))
	}

	s.mu.Lock()
	s.sessions[session.Info.ID] = session
	s.mu.Unlock()
	s.metrics.SessionMounted()
	logger.Info("console session mounted", zap.Bool("subsidy_requests_enabled", session.enabled))
	return session, nil
}

// Get returns the caller's session.
func (s *ConsoleSessionService) Get(id string, claims *models.JWTClaims) (*ConsoleSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || !ownsSession(session, claims) {
		return nil, appErrors.ErrSessionNotFound
	}
	session.Touch()
	return session, nil
}

// Unmount closes the caller's session and forgets it.
func (s *ConsoleSessionService) Unmount(id string, claims *models.JWTClaims) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok || !ownsSession(session, claims) {
		s.mu.Unlock()
		return appErrors.ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	session.close()
	s.metrics.SessionUnmounted()
	s.logger.Info("console session unmounted", zap.String("session_id", id))
	return nil
}

// List returns the caller's sessions, most recent first.
func (s *ConsoleSessionService) List(claims *models.JWTClaims) []models.ConsoleSessionInfo {
	s.mu.RLock()
	infos := make([]models.ConsoleSessionInfo, 0)
	for _, session := range s.sessions {
		if ownsSession(session, claims) {
			infos = append(infos, session.Info)
		}
	}
	s.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].MountedAt.After(infos[j].MountedAt) })
	return infos
}

// SweepIdle unmounts sessions unused since before now minus the idle TTL.
func (s *ConsoleSessionService) SweepIdle(now time.Time) int {
	cutoff := now.Add(-s.cfg.IdleTTL)
	var expired []*ConsoleSession

	s.mu.Lock()
	for id, session := range s.sessions {
		if session.LastSeen().Before(cutoff) {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.close()
		s.metrics.SessionUnmounted()
		s.logger.Info("console session expired", zap.String("session_id", session.Info.ID))
	}
	return len(expired)
}

// StartSweeper runs SweepIdle every interval until ctx is done.
func (s *ConsoleSessionService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.SweepIdle(now)
			}
		}
	}()
}

// Close unmounts every session.
func (s *ConsoleSessionService) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*ConsoleSession)
	s.mu.Unlock()
	for _, session := range sessions {
		session.close()
		s.metrics.SessionUnmounted()
	}
}

func (s *ConsoleSessionService) newLicenseController(ctx context.Context, enterpriseID string, licenses LicenseAssignmentLister, logger *zap.Logger) *LicenseAssignmentController {
	return NewPaginatedController(ctx, PaginatedControllerConfig[dto.LicenseAssignmentPayload, models.LicenseAssignment]{
		Resource: "license_assignments",
		Fetch: func(ctx context.Context, params url.Values) (*dto.PageEnvelope[dto.LicenseAssignmentPayload], error) {
			if licenses == nil {
				return nil, appErrors.Clone(appErrors.ErrInternal, "license assignments are not configured")
			}
			return licenses.List(ctx, enterpriseID, params)
		},
		Transform:       licenseAssignmentFromPayload,
		Include:         hasActivated,
		SortColumns:     licenseAssignmentSortColumns,
		Filters:         licenseAssignmentFilters,
		DefaultPageSize: s.cfg.Lists.PageSize,
		Debounce:        s.cfg.Lists.Debounce,
		Logger:          logger,
		Metrics:         s.metrics,
	})
}

func ownsSession(session *ConsoleSession, claims *models.JWTClaims) bool {
	if claims == nil {
		return false
	}
	return session.Info.UserID == claims.UserID && session.Info.EnterpriseID == claims.EnterpriseID
}

func licenseAssignmentFromPayload(p dto.LicenseAssignmentPayload) models.LicenseAssignment {
	return models.LicenseAssignment{
		ID:             p.UUID,
		UserEmail:      p.UserEmail,
		Status:         p.Status,
		ActivationDate: p.ActivationDate,
		LastRemindDate: p.LastRemindDate,
	}
}

func hasActivated(assignment models.LicenseAssignment) bool {
	return assignment.ActivationDate != nil
}
