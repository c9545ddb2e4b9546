package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pal-track-api/internal/models"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

type catalogRepository interface {
	ListPrograms(ctx context.Context) ([]models.Program, error)
	FindProgram(ctx context.Context, id string) (*models.Program, error)
	ListYears(ctx context.Context, programID string) ([]models.Year, error)
	FindYear(ctx context.Context, id string) (*models.Year, error)
	ListEligibleCourses(ctx context.Context, programID string, yearNumber int) ([]models.CourseDetail, error)
	FindCourse(ctx context.Context, id string) (*models.Course, error)
	FindCourses(ctx context.Context, ids []string) ([]models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CatalogService exposes the program, year and course catalog. Eligible
// course listings are cached in Redis since they are read on every wizard
// step render and change only on course writes.
type CatalogService struct {
	repo     catalogRepository
	cache    catalogCache
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewCatalogService constructs a CatalogService instance. metrics may be nil.
func NewCatalogService(repo catalogRepository, cache catalogCache, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, metrics: metrics, logger: logger, cacheTTL: cacheTTL}
}

// ListPrograms returns all programs.
func (s *CatalogService) ListPrograms(ctx context.Context) ([]models.Program, error) {
	programs, err := s.repo.ListPrograms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// ListYears returns the years of a program, cumulative ordering by number.
func (s *CatalogService) ListYears(ctx context.Context, programID string) ([]models.Year, error) {
	if _, err := s.repo.FindProgram(ctx, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	years, err := s.repo.ListYears(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list years")
	}
	return years, nil
}

// EligibleCourses returns the courses a candidate of the given program and
// year may select: all courses of their program up to their year, plus cross
// listed courses of other programs.
func (s *CatalogService) EligibleCourses(ctx context.Context, programID, yearID string) ([]models.CourseDetail, error) {
	year, err := s.repo.FindYear(ctx, yearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year")
	}

	cacheKey := fmt.Sprintf("catalog:eligible:%s:%d", programID, year.Number)
	if s.cache != nil {
		var cached []models.CourseDetail
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.ObserveCacheHit()
			}
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.ObserveCacheMiss()
		}
	}

	courses, err := s.repo.ListEligibleCourses(ctx, programID, year.Number)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eligible courses")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, courses, s.cacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return courses, nil
}

// CreateCourse adds a course to the catalog and invalidates cached listings.
func (s *CatalogService) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.Code == "" || course.Name == "" || course.ProgramID == "" || course.YearID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "course code, name, program and year are required")
	}
	year, err := s.repo.FindYear(ctx, course.YearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "year not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year")
	}
	if year.ProgramID != course.ProgramID {
		return appErrors.Clone(appErrors.ErrValidation, "year does not belong to the course program")
	}

	if err := s.repo.CreateCourse(ctx, course); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "catalog:eligible:*"); err != nil {
			s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}
