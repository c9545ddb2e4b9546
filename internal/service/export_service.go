package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pal-track-api/internal/models"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
	"github.com/noah-isme/pal-track-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportApplicationRepository interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.TutorApplicationDetail, int, error)
}

type exportSessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error)
}

// ExportService renders application and session listings as downloadable
// CSV or PDF documents.
type ExportService struct {
	apps     exportApplicationRepository
	sessions exportSessionRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(apps exportApplicationRepository, sessions exportSessionRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		apps:     apps,
		sessions: sessions,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// Applications exports the filtered application listing.
func (s *ExportService) Applications(ctx context.Context, filter models.ApplicationFilter, format ExportFormat) ([]byte, string, error) {
	filter.Page = 1
	filter.PageSize = 100
	apps, _, err := s.apps.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load applications for export")
	}

	dataset := export.Dataset{
		Headers: []string{"Applicant", "Email", "Program", "Year", "GPA", "Confidence", "Status", "Submitted"},
	}
	for _, app := range apps {
		gpa := ""
		if app.GPA != nil {
			gpa = strconv.FormatFloat(*app.GPA, 'f', 2, 64)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Applicant":  app.ApplicantName,
			"Email":      app.ApplicantEmail,
			"Program":    app.ProgramCode,
			"Year":       strconv.Itoa(app.YearNumber),
			"GPA":        gpa,
			"Confidence": strconv.Itoa(app.ConfidenceRating),
			"Status":     string(app.Status),
			"Submitted":  app.CreatedAt.Format(time.RFC3339),
		})
	}
	return s.render(dataset, "tutor applications", format)
}

// Sessions exports the filtered session listing.
func (s *ExportService) Sessions(ctx context.Context, filter models.SessionFilter, format ExportFormat) ([]byte, string, error) {
	filter.Page = 1
	filter.PageSize = 100
	sessions, _, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions for export")
	}

	dataset := export.Dataset{
		Headers: []string{"Tutor", "Learner", "Course", "Scheduled", "Duration", "Status"},
	}
	for _, session := range sessions {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Tutor":     session.TutorName,
			"Learner":   session.LearnerName,
			"Course":    session.CourseCode,
			"Scheduled": session.ScheduledAt.Format(time.RFC3339),
			"Duration":  fmt.Sprintf("%d min", session.DurationMinutes),
			"Status":    string(session.Status),
		})
	}
	return s.render(dataset, "tutoring sessions", format)
}

func (s *ExportService) render(dataset export.Dataset, title string, format ExportFormat) ([]byte, string, error) {
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
