package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pal-track-api/internal/models"
	"github.com/noah-isme/pal-track-api/pkg/config"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

// Runtime-tunable rule keys. Only allow-listed keys can be written.
const (
	SettingMaxCourseSelections = "max_course_selections"
	SettingMinTutorGPA         = "min_tutor_gpa"
)

type settingsRepository interface {
	Find(ctx context.Context, key string) (*models.Setting, error)
	List(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

type settingsAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RuleReader exposes the effective program rules to other services.
type RuleReader interface {
	MaxCourseSelections(ctx context.Context) int
	MinTutorGPA(ctx context.Context) float64
}

// SettingsService manages the runtime-tunable program rules. Configuration
// values act as defaults; a stored setting row overrides them.
type SettingsService struct {
	repo     settingsRepository
	audit    settingsAuditRepository
	logger   *zap.Logger
	defaults config.RulesConfig
}

// NewSettingsService constructs a SettingsService instance.
func NewSettingsService(repo settingsRepository, audit settingsAuditRepository, logger *zap.Logger, defaults config.RulesConfig) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, audit: audit, logger: logger, defaults: defaults}
}

// List returns all stored settings.
func (s *SettingsService) List(ctx context.Context) ([]models.Setting, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	return settings, nil
}

// Update validates and stores an allow-listed setting.
func (s *SettingsService) Update(ctx context.Context, key, value, updatedBy string) (*models.Setting, error) {
	setting := &models.Setting{Key: key, Value: value, UpdatedBy: &updatedBy}

	switch key {
	case SettingMaxCourseSelections:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 10 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max_course_selections must be an integer between 1 and 10")
		}
		setting.Type = models.SettingTypeInteger
	case SettingMinTutorGPA:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 4 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "min_tutor_gpa must be a number between 0.0 and 4.0")
		}
		setting.Type = models.SettingTypeFloat
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown setting key %q", key))
	}

	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store setting")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &updatedBy,
			Action:     models.AuditActionSettingUpdate,
			Resource:   "settings",
			ResourceID: &setting.Key,
			NewValues:  []byte(fmt.Sprintf(`{"value":%q}`, value)),
			CreatedAt:  time.Now().UTC(),
		}); err != nil {
			s.logger.Warn("failed to record setting audit log", zap.Error(err))
		}
	}

	return setting, nil
}

// MaxCourseSelections returns the effective course selection cap. It falls
// back to the configured default when the row is absent or unreadable.
func (s *SettingsService) MaxCourseSelections(ctx context.Context) int {
	setting, err := s.repo.Find(ctx, SettingMaxCourseSelections)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load max_course_selections setting", zap.Error(err))
		}
		return s.defaults.MaxCourseSelections
	}
	n, err := strconv.Atoi(setting.Value)
	if err != nil || n < 1 {
		s.logger.Warn("stored max_course_selections is invalid", zap.String("value", setting.Value))
		return s.defaults.MaxCourseSelections
	}
	return n
}

// MinTutorGPA returns the effective GPA threshold for tutor applications.
func (s *SettingsService) MinTutorGPA(ctx context.Context) float64 {
	setting, err := s.repo.Find(ctx, SettingMinTutorGPA)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load min_tutor_gpa setting", zap.Error(err))
		}
		return s.defaults.MinTutorGPA
	}
	f, err := strconv.ParseFloat(setting.Value, 64)
	if err != nil || f < 0 {
		s.logger.Warn("stored min_tutor_gpa is invalid", zap.String("value", setting.Value))
		return s.defaults.MinTutorGPA
	}
	return f
}
