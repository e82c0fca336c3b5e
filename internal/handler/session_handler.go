package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	"github.com/noah-isme/subsidy-console-gateway/internal/service"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
	"github.com/noah-isme/subsidy-console-gateway/pkg/response"
)

const (
	defaultStreamHeartbeat = 20 * time.Second
	streamWriteTimeout     = 10 * time.Second
	streamBuffer           = 32
)

type sessionService interface {
	Mount(ctx context.Context, claims *models.JWTClaims, token string, eligible []models.SubsidyChannel) (*service.ConsoleSession, error)
	Get(id string, claims *models.JWTClaims) (*service.ConsoleSession, error)
	Unmount(id string, claims *models.JWTClaims) error
	List(claims *models.JWTClaims) []models.ConsoleSessionInfo
}

// SessionHandler exposes console session lifecycle endpoints and the snapshot stream.
type SessionHandler struct {
	sessions  sessionService
	validator *validator.Validate
	logger    *zap.Logger
	heartbeat time.Duration
	upgrader  websocket.Upgrader
}

// NewSessionHandler builds a new handler. allowOrigin decides websocket origins; nil allows all.
func NewSessionHandler(sessions sessionService, validate *validator.Validate, logger *zap.Logger, heartbeat time.Duration, allowOrigin func(*http.Request) bool) *SessionHandler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if heartbeat <= 0 {
		heartbeat = defaultStreamHeartbeat
	}
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	return &SessionHandler{
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		heartbeat: heartbeat,
		upgrader:  websocket.Upgrader{CheckOrigin: allowOrigin},
	}
}

// Mount godoc
// @Summary Mount a console session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.MountSessionRequest false "Eligible subsidy channels"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Mount(c *gin.Context) {
	var req dto.MountSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid eligible channels"))
		return
	}
	eligible := make([]models.SubsidyChannel, 0, len(req.EligibleChannels))
	for _, raw := range req.EligibleChannels {
		if channel, ok := models.ParseSubsidyChannel(raw); ok {
			eligible = append(eligible, channel)
		}
	}

	session, err := h.sessions.Mount(c.Request.Context(), claimsFromContext(c), tokenFromContext(c), eligible)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.MountSessionResponse{Session: session.Info, Snapshot: session.Provider.Snapshot()})
}

// List godoc
// @Summary List the caller's console sessions
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.sessions.List(claimsFromContext(c)), nil)
}

// Get godoc
// @Summary Get console session state
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessionState(session), nil)
}

// Unmount godoc
// @Summary Unmount a console session
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Unmount(c *gin.Context) {
	if err := h.sessions.Unmount(c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stream godoc
// @Summary Stream session snapshots over a websocket
// @Tags Sessions
// @Param id path string true "Session ID"
// @Param access_token query string false "Bearer token for browsers that cannot set headers"
// @Success 101
// @Router /sessions/{id}/stream [get]
func (h *SessionHandler) Stream(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("session_id", session.Info.ID), zap.Error(err))
		return
	}
	logger := h.logger.With(zap.String("session_id", session.Info.ID))

	messages := make(chan dto.StreamMessage, streamBuffer)
	push := func(msg dto.StreamMessage) {
		select {
		case messages <- msg:
		default:
			logger.Debug("dropping stream message for slow client", zap.String("type", msg.Type))
		}
	}

	unsubscribes := []func(){
		session.Provider.Subscribe(func(s dto.SubsidyRequestsSnapshot) {
			push(dto.StreamMessage{Type: dto.StreamSubsidyRequests, Data: s})
		}),
		session.Licenses.Subscribe(func(p models.Page[models.LicenseAssignment]) {
			push(dto.StreamMessage{Type: dto.StreamLicenses, Data: p})
		}),
	}
	for _, channel := range models.SubsidyChannels {
		if view, ok := session.RequestView(channel); ok {
			unsubscribes = append(unsubscribes, view.Subscribe(func(s dto.RequestListSnapshot) {
				push(dto.StreamMessage{Type: dto.StreamRequestList, Data: s})
			}))
		}
	}
	defer func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}()

	push(dto.StreamMessage{Type: dto.StreamSubsidyRequests, Data: session.Provider.Snapshot()})

	done := make(chan struct{})
	go h.writePump(conn, messages, done, session.Done(), logger)

	conn.SetReadLimit(1024)
	readTimeout := 3 * h.heartbeat
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		session.Touch()
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logger.Debug("websocket closed", zap.Error(err))
			break
		}
	}
	close(done)
	_ = conn.Close()
}

func (h *SessionHandler) writePump(conn *websocket.Conn, messages <-chan dto.StreamMessage, done, sessionDone <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-sessionDone:
			logger.Debug("closing stream for closed session")
			closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed")
			_ = conn.WriteControl(websocket.CloseMessage, closing, time.Now().Add(streamWriteTimeout))
			_ = conn.Close()
			return
		case msg := <-messages:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("websocket write failed", zap.Error(err))
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func sessionState(session *service.ConsoleSession) dto.SessionStateResponse {
	state := dto.SessionStateResponse{
		Session:  session.Info,
		Snapshot: session.Provider.Snapshot(),
		Licenses: session.Licenses.State(),
	}
	for _, channel := range models.SubsidyChannels {
		if view, ok := session.RequestView(channel); ok {
			state.Requests = append(state.Requests, view.Snapshot())
		}
	}
	return state
}
