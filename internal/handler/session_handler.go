package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pal-track-api/internal/models"
	"github.com/noah-isme/pal-track-api/internal/service"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
	"github.com/noah-isme/pal-track-api/pkg/response"
)

// SessionHandler exposes session scheduling, lifecycle and feedback routes.
type SessionHandler struct {
	service *service.SessionService
	metrics *service.MetricsService
}

// NewSessionHandler creates a new handler.
func NewSessionHandler(svc *service.SessionService, metrics *service.MetricsService) *SessionHandler {
	return &SessionHandler{service: svc, metrics: metrics}
}

// Schedule godoc
// @Summary Schedule a tutoring session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.ScheduleSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions [post]
func (h *SessionHandler) Schedule(c *gin.Context) {
	var req service.ScheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}

	session, err := h.service.Schedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// List godoc
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Param tutor_id query string false "Filter by tutor"
// @Param learner_id query string false "Filter by learner"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	filter := models.SessionFilter{
		TutorID:   c.Query("tutor_id"),
		LearnerID: c.Query("learner_id"),
		CourseID:  c.Query("course_id"),
		Status:    models.SessionStatus(c.Query("status")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	sessions, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Get godoc
// @Summary Get a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Complete godoc
// @Summary Mark a session completed
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204 "completed"
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id}/complete [post]
func (h *SessionHandler) Complete(c *gin.Context) {
	if err := h.service.Complete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveTransition("session", string(models.SessionStatusCompleted))
	}
	response.NoContent(c)
}

// Cancel godoc
// @Summary Cancel a scheduled session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204 "cancelled"
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveTransition("session", string(models.SessionStatusCancelled))
	}
	response.NoContent(c)
}

// SubmitFeedback godoc
// @Summary Submit feedback for a completed session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.FeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id}/feedback [post]
func (h *SessionHandler) SubmitFeedback(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}

	feedback, err := h.service.AttachFeedback(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, feedback)
}

// GetFeedback godoc
// @Summary Get feedback for a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id}/feedback [get]
func (h *SessionHandler) GetFeedback(c *gin.Context) {
	feedback, err := h.service.GetFeedback(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feedback, nil)
}
