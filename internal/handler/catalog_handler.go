package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pal-track-api/internal/models"
	"github.com/noah-isme/pal-track-api/internal/service"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
	"github.com/noah-isme/pal-track-api/pkg/response"
)

// CatalogHandler exposes the program, year and course catalog.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListPrograms godoc
// @Summary List programs
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/programs [get]
func (h *CatalogHandler) ListPrograms(c *gin.Context) {
	programs, err := h.service.ListPrograms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// ListYears godoc
// @Summary List years of a program
// @Tags Catalog
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /catalog/programs/{id}/years [get]
func (h *CatalogHandler) ListYears(c *gin.Context) {
	years, err := h.service.ListYears(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, nil)
}

// EligibleCourses godoc
// @Summary List courses eligible for a program and year
// @Tags Catalog
// @Produce json
// @Param program_id query string true "Program ID"
// @Param year_id query string true "Year ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /catalog/courses [get]
func (h *CatalogHandler) EligibleCourses(c *gin.Context) {
	programID := c.Query("program_id")
	yearID := c.Query("year_id")
	if programID == "" || yearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "program_id and year_id are required"))
		return
	}

	courses, err := h.service.EligibleCourses(c.Request.Context(), programID, yearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// CreateCourse godoc
// @Summary Add a course to the catalog
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.Course true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /catalog/courses [post]
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var course models.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	if err := h.service.CreateCourse(c.Request.Context(), &course); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}
