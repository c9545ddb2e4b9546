package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pal-track-api/internal/models"
	"github.com/noah-isme/pal-track-api/internal/service"
	"github.com/noah-isme/pal-track-api/internal/wizard"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
	"github.com/noah-isme/pal-track-api/pkg/response"
)

// ApplicationHandler exposes the tutor application wizard and review ops.
type ApplicationHandler struct {
	service *service.ApplicationService
	metrics *service.MetricsService
}

// NewApplicationHandler creates a new handler.
func NewApplicationHandler(svc *service.ApplicationService, metrics *service.MetricsService) *ApplicationHandler {
	return &ApplicationHandler{service: svc, metrics: metrics}
}

type applicationStepRequest struct {
	State wizard.State[service.ApplicationForm] `json:"state"`
	Form  service.ApplicationForm               `json:"form"`
}

// Start godoc
// @Summary Start a tutor application
// @Tags Applications
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /applications/start [post]
func (h *ApplicationHandler) Start(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	st, err := h.service.Start(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, st, nil)
}

// Next godoc
// @Summary Submit the current application step
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body applicationStepRequest true "Wizard state and step input"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /applications/next [post]
func (h *ApplicationHandler) Next(c *gin.Context) {
	var req applicationStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid step payload"))
		return
	}

	st, err := h.service.Next(c.Request.Context(), req.State, req.Form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, st, nil)
}

// Back godoc
// @Summary Return to the previous application step
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body applicationStepRequest true "Wizard state"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /applications/back [post]
func (h *ApplicationHandler) Back(c *gin.Context) {
	var req applicationStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid step payload"))
		return
	}

	st, err := h.service.Back(req.State)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, st, nil)
}

// Cancel godoc
// @Summary Abandon the application wizard
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body applicationStepRequest true "Wizard state"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /applications/cancel [post]
func (h *ApplicationHandler) Cancel(c *gin.Context) {
	var req applicationStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid step payload"))
		return
	}

	st, err := h.service.Cancel(req.State)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveWizardOutcome("application", string(st.Status))
	}
	response.JSON(c, http.StatusOK, st, nil)
}

// Decline godoc
// @Summary Decline the tutoring invitation
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body applicationStepRequest true "Wizard state"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /applications/decline [post]
func (h *ApplicationHandler) Decline(c *gin.Context) {
	var req applicationStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid step payload"))
		return
	}

	st, err := h.service.Decline(req.State)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveWizardOutcome("application", string(st.Status))
	}
	response.JSON(c, http.StatusOK, st, nil)
}

// Submit godoc
// @Summary Finalize a submitted application
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body applicationStepRequest true "Submitted wizard state"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /applications/submit [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req applicationStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submit payload"))
		return
	}

	app, err := h.service.Finalize(c.Request.Context(), claims.UserID, req.State)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveWizardOutcome("application", "finalized")
	}
	response.Created(c, app)
}

// List godoc
// @Summary List tutor applications
// @Tags Applications
// @Produce json
// @Param status query string false "Filter by status"
// @Param program_id query string false "Filter by program"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	filter := models.ApplicationFilter{
		Status:    models.ApplicationStatus(c.Query("status")),
		ProgramID: c.Query("program_id"),
		UserID:    c.Query("user_id"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	apps, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, pagination)
}

// Get godoc
// @Summary Get an application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Approve godoc
// @Summary Approve a pending application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 204 "approved"
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /applications/{id}/approve [post]
func (h *ApplicationHandler) Approve(c *gin.Context) {
	h.review(c, h.service.Approve, models.ApplicationStatusApproved)
}

// Reject godoc
// @Summary Reject a pending application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 204 "rejected"
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /applications/{id}/reject [post]
func (h *ApplicationHandler) Reject(c *gin.Context) {
	h.review(c, h.service.Reject, models.ApplicationStatusRejected)
}

func (h *ApplicationHandler) review(c *gin.Context, op func(ctx context.Context, id, reviewerID string) error, decision models.ApplicationStatus) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := op(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveTransition("application", string(decision))
	}
	response.NoContent(c)
}
