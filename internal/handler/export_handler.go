package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pal-track-api/internal/models"
	"github.com/noah-isme/pal-track-api/internal/service"
	"github.com/noah-isme/pal-track-api/pkg/response"
)

// ExportHandler serves application and session listings as downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Applications godoc
// @Summary Export tutor applications
// @Tags Export
// @Produce text/csv
// @Param format query string false "csv or pdf" default(csv)
// @Param status query string false "Filter by status"
// @Success 200 {file} byte "document"
// @Security BearerAuth
// @Router /export/applications [get]
func (h *ExportHandler) Applications(c *gin.Context) {
	filter := models.ApplicationFilter{
		Status:    models.ApplicationStatus(c.Query("status")),
		ProgramID: c.Query("program_id"),
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	payload, contentType, err := h.service.Applications(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, payload, contentType, "applications", format)
}

// Sessions godoc
// @Summary Export tutoring sessions
// @Tags Export
// @Produce text/csv
// @Param format query string false "csv or pdf" default(csv)
// @Param status query string false "Filter by status"
// @Success 200 {file} byte "document"
// @Security BearerAuth
// @Router /export/sessions [get]
func (h *ExportHandler) Sessions(c *gin.Context) {
	filter := models.SessionFilter{
		Status:  models.SessionStatus(c.Query("status")),
		TutorID: c.Query("tutor_id"),
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	payload, contentType, err := h.service.Sessions(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, payload, contentType, "sessions", format)
}

func serveDownload(c *gin.Context, payload []byte, contentType, name string, format service.ExportFormat) {
	filename := fmt.Sprintf("%s-%s.%s", name, time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(200, contentType, payload)
}
