package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/pal-track-api/internal/models"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

// ImportRecord is one row of a bulk user import.
type ImportRecord struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	StudentID string `json:"student_id"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// RowError describes a failed import row. Row numbers are 1-based and refer
// to the position in the submitted batch.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult summarises a reconciliation run.
type ImportResult struct {
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	Errors       []RowError `json:"errors"`
}

type importUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ImportService reconciles external user rosters into local accounts. Rows
// are processed strictly in order and independently: a row with bad data is
// recorded and the batch continues, so re-running a partially failed batch
// only reports the rows that still conflict. Infrastructure faults are not
// row data problems and abort the run instead.
type ImportService struct {
	users      importUserRepository
	logger     *zap.Logger
	maxRecords int
}

// NewImportService constructs an ImportService instance.
func NewImportService(users importUserRepository, logger *zap.Logger, maxRecords int) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRecords <= 0 {
		maxRecords = 5000
	}
	return &ImportService{users: users, logger: logger, maxRecords: maxRecords}
}

// Reconcile imports the batch best-effort and reports per-row outcomes. It
// never returns an error for bad row data; an oversized batch is rejected
// outright, and a hashing or persistence fault aborts the remainder of the
// run since every following row would fail for the same reason. Rows
// committed before the fault stay committed.
func (s *ImportService) Reconcile(ctx context.Context, importerID string, records []ImportRecord) (*ImportResult, error) {
	if len(records) > s.maxRecords {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("batch exceeds the %d record limit", s.maxRecords))
	}

	result := &ImportResult{}
	for i, record := range records {
		row := i + 1
		if err := s.importRow(ctx, record); err != nil {
			var infraErr *appErrors.Error
			if errors.As(err, &infraErr) {
				s.logger.Error("bulk import aborted",
					zap.Int("row", row),
					zap.Error(err))
				return nil, err
			}
			result.ErrorCount++
			result.Errors = append(result.Errors, RowError{Row: row, Error: err.Error()})
			continue
		}
		result.SuccessCount++
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:    &importerID,
		Action:    models.AuditActionBulkImport,
		Resource:  "users",
		NewValues: []byte(fmt.Sprintf(`{"success":%d,"errors":%d}`, result.SuccessCount, result.ErrorCount)),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to record import audit log", zap.Error(err))
	}

	s.logger.Info("bulk import finished",
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount))
	return result, nil
}

func (s *ImportService) importRow(ctx context.Context, record ImportRecord) error {
	if record.Email == "" || record.FirstName == "" || record.LastName == "" || record.Password == "" {
		return errors.New("missing required fields")
	}
	if _, err := mail.ParseAddress(record.Email); err != nil {
		return errors.New("invalid email address")
	}

	role := models.UserRole(record.Role)
	switch role {
	case "":
		role = models.RoleStudent
	case models.RoleStudent, models.RoleTutor, models.RoleManager:
	default:
		return fmt.Errorf("unknown role %q", record.Role)
	}

	if _, err := s.users.FindByEmail(ctx, record.Email); err == nil {
		return errors.New("email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "email lookup failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(record.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "password hashing failed")
	}

	user := &models.User{
		Email:        record.Email,
		PasswordHash: string(hash),
		FirstName:    record.FirstName,
		LastName:     record.LastName,
		Role:         role,
		Active:       true,
	}
	if record.StudentID != "" {
		user.StudentID = &record.StudentID
	}
	if err := s.users.Create(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return nil
}
