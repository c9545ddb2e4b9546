package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pal-track-api/internal/service"
	"github.com/noah-isme/pal-track-api/internal/wizard"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
	"github.com/noah-isme/pal-track-api/pkg/response"
)

// RegistrationHandler exposes the student registration wizard. Wizard state
// travels with the client between calls; the server re-validates every
// submitted step, so a tampered state cannot skip a gate.
type RegistrationHandler struct {
	service *service.RegistrationService
	metrics *service.MetricsService
}

// NewRegistrationHandler creates a new handler.
func NewRegistrationHandler(svc *service.RegistrationService, metrics *service.MetricsService) *RegistrationHandler {
	return &RegistrationHandler{service: svc, metrics: metrics}
}

type registrationStepRequest struct {
	State wizard.State[service.RegistrationForm] `json:"state"`
	Form  service.RegistrationForm               `json:"form"`
}

// Start godoc
// @Summary Start student registration
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registration/start [post]
func (h *RegistrationHandler) Start(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Start(), nil)
}

// Next godoc
// @Summary Submit the current registration step
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body registrationStepRequest true "Wizard state and step input"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registration/next [post]
func (h *RegistrationHandler) Next(c *gin.Context) {
	var req registrationStepRequest
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
// @Summary Return to the previous registration step
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body registrationStepRequest true "Wizard state"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registration/back [post]
func (h *RegistrationHandler) Back(c *gin.Context) {
	var req registrationStepRequest
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
// @Summary Abandon the registration wizard
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body registrationStepRequest true "Wizard state"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registration/cancel [post]
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	var req registrationStepRequest
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
		h.metrics.ObserveWizardOutcome("registration", string(st.Status))
	}
	response.JSON(c, http.StatusOK, st, nil)
}

// Submit godoc
// @Summary Finalize a submitted registration
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body registrationStepRequest true "Submitted wizard state"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registration/submit [post]
func (h *RegistrationHandler) Submit(c *gin.Context) {
	var req registrationStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submit payload"))
		return
	}

	user, err := h.service.Finalize(c.Request.Context(), req.State)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveWizardOutcome("registration", "finalized")
	}
	response.Created(c, user)
}
