package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	"github.com/noah-isme/subsidy-console-gateway/internal/service"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
	"github.com/noah-isme/subsidy-console-gateway/pkg/response"
)

type sessionLookup interface {
	Get(id string, claims *models.JWTClaims) (*service.ConsoleSession, error)
}

type requestActionService interface {
	Approve(ctx context.Context, session *service.ConsoleSession, channel models.SubsidyChannel, requestID string, req dto.ApproveRequest) (*dto.RequestListSnapshot, error)
	Decline(ctx context.Context, session *service.ConsoleSession, channel models.SubsidyChannel, requestID string, req dto.DeclineRequest) (*dto.RequestListSnapshot, error)
}

// SubsidyRequestHandler exposes the per-channel request tables and admin actions.
type SubsidyRequestHandler struct {
	sessions  sessionLookup
	actions   requestActionService
	validator *validator.Validate
}

// NewSubsidyRequestHandler builds a new handler.
func NewSubsidyRequestHandler(sessions sessionLookup, actions requestActionService, validate *validator.Validate) *SubsidyRequestHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &SubsidyRequestHandler{sessions: sessions, actions: actions, validator: validate}
}

// Query godoc
// @Summary Reconfigure a request table
// @Description Page, sort and filter changes are debounced; the fetched page arrives on the stream or via GET.
// @Tags SubsidyRequests
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param channel path string true "license or coupon"
// @Param payload body dto.ConfigureListRequest true "Table state"
// @Success 202 {object} response.Envelope
// @Router /sessions/{id}/requests/{channel}/query [put]
func (h *SubsidyRequestHandler) Query(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	var req dto.ConfigureListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid table state"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid table state"))
		return
	}

	view.Configure(req.FetchArgs)
	response.Accepted(c, view.Snapshot())
}

// Get godoc
// @Summary Get a request table snapshot
// @Tags SubsidyRequests
// @Produce json
// @Param id path string true "Session ID"
// @Param channel path string true "license or coupon"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/requests/{channel} [get]
func (h *SubsidyRequestHandler) Get(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	snapshot := view.Snapshot()
	pagination := &models.Pagination{
		PageSize:   len(snapshot.Page.Results),
		TotalCount: snapshot.Page.ItemCount,
		PageCount:  snapshot.Page.PageCount,
	}
	response.JSON(c, http.StatusOK, snapshot, pagination)
}

// Approve godoc
// @Summary Approve a subsidy request
// @Tags SubsidyRequests
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param channel path string true "license or coupon"
// @Param requestId path string true "Subsidy request UUID"
// @Param payload body dto.ApproveRequest true "Approval payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/requests/{channel}/{requestId}/approve [post]
func (h *SubsidyRequestHandler) Approve(c *gin.Context) {
	session, channel, ok := h.target(c)
	if !ok {
		return
	}
	var req dto.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}
	snapshot, err := h.actions.Approve(c.Request.Context(), session, channel, c.Param("requestId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Decline godoc
// @Summary Decline a subsidy request
// @Tags SubsidyRequests
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param channel path string true "license or coupon"
// @Param requestId path string true "Subsidy request UUID"
// @Param payload body dto.DeclineRequest true "Decline payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/requests/{channel}/{requestId}/decline [post]
func (h *SubsidyRequestHandler) Decline(c *gin.Context) {
	session, channel, ok := h.target(c)
	if !ok {
		return
	}
	var req dto.DeclineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decline payload"))
		return
	}
	snapshot, err := h.actions.Decline(c.Request.Context(), session, channel, c.Param("requestId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// RefreshOverview godoc
// @Summary Refresh the pending request badges
// @Description Also refetches every configured table so rows and chips match the server.
// @Tags SubsidyRequests
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/overview/refresh [post]
func (h *SubsidyRequestHandler) RefreshOverview(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := session.Provider.RefreshOverview(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	session.ReloadTables()
	response.JSON(c, http.StatusOK, session.Provider.Snapshot(), nil)
}

// UpdateConfiguration godoc
// @Summary Update the subsidy request configuration
// @Tags SubsidyRequests
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateConfigurationRequest true "Partial configuration"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/configuration [patch]
func (h *SubsidyRequestHandler) UpdateConfiguration(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !session.SubsidyRequestsEnabled() {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	var req dto.UpdateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid configuration payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid configuration payload"))
		return
	}

	patch := models.SubsidyConfigurationPatch{RequestsEnabled: req.RequestsEnabled, ClearSubsidyType: req.ClearSubsidyType}
	if req.SubsidyType != nil {
		channel, _ := models.ParseSubsidyChannel(*req.SubsidyType)
		patch.SubsidyType = &channel
	}
	if err := session.Provider.UpdateConfiguration(c.Request.Context(), patch); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session.Provider.Snapshot(), nil)
}

func (h *SubsidyRequestHandler) target(c *gin.Context) (*service.ConsoleSession, models.SubsidyChannel, bool) {
	channel, err := channelParam(c)
	if err != nil {
		response.Error(c, err)
		return nil, "", false
	}
	session, err := h.sessions.Get(c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return nil, "", false
	}
	return session, channel, true
}

func (h *SubsidyRequestHandler) view(c *gin.Context) (*service.RequestListView, bool) {
	session, channel, ok := h.target(c)
	if !ok {
		return nil, false
	}
	if !session.SubsidyRequestsEnabled() {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return nil, false
	}
	view, found := session.RequestView(channel)
	if !found {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown subsidy channel"))
		return nil, false
	}
	return view, true
}
