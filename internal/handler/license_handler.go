package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/subsidy-console-gateway/internal/dto"
	"github.com/noah-isme/subsidy-console-gateway/internal/models"
	appErrors "github.com/noah-isme/subsidy-console-gateway/pkg/errors"
	"github.com/noah-isme/subsidy-console-gateway/pkg/response"
)

// LicenseHandler exposes the activated license table of a session.
type LicenseHandler struct {
	sessions  sessionLookup
	validator *validator.Validate
}

// NewLicenseHandler builds a new handler.
func NewLicenseHandler(sessions sessionLookup, validate *validator.Validate) *LicenseHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &LicenseHandler{sessions: sessions, validator: validate}
}

// Query godoc
// @Summary Reconfigure the license table
// @Tags Licenses
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ConfigureListRequest true "Table state"
// @Success 202 {object} response.Envelope
// @Router /sessions/{id}/licenses/query [put]
func (h *LicenseHandler) Query(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
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
	session.Licenses.Configure(req.FetchArgs)
	response.Accepted(c, session.Licenses.State())
}

// Get godoc
// @Summary Get the license table snapshot
// @Tags Licenses
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/licenses [get]
func (h *LicenseHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	page := session.Licenses.State()
	pagination := &models.Pagination{
		PageSize:   len(page.Results),
		TotalCount: page.ItemCount,
		PageCount:  page.PageCount,
	}
	response.JSON(c, http.StatusOK, page, pagination)
}
