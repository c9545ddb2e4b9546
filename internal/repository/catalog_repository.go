package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pal-track-api/internal/models"
)

// CatalogRepository provides database access for programs, years and courses.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListPrograms returns all programs ordered by name.
func (r *CatalogRepository) ListPrograms(ctx context.Context) ([]models.Program, error) {
	const query = `SELECT id, name, code, description, created_at FROM programs ORDER BY name`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindProgram returns a program by identifier.
func (r *CatalogRepository) FindProgram(ctx context.Context, id string) (*models.Program, error) {
	const query = `SELECT id, name, code, description, created_at FROM programs WHERE id = $1 LIMIT 1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find program: %w", err)
	}
	return &program, nil
}

// ListYears returns the years of a program ordered by number.
func (r *CatalogRepository) ListYears(ctx context.Context, programID string) ([]models.Year, error) {
	const query = `SELECT id, program_id, number, name FROM years WHERE program_id = $1 ORDER BY number`
	var years []models.Year
	if err := r.db.SelectContext(ctx, &years, query, programID); err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	return years, nil
}

// FindYear returns a year by identifier.
func (r *CatalogRepository) FindYear(ctx context.Context, id string) (*models.Year, error) {
	const query = `SELECT id, program_id, number, name FROM years WHERE id = $1 LIMIT 1`
	var year models.Year
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find year: %w", err)
	}
	return &year, nil
}

// ListEligibleCourses returns the courses visible to a candidate of the given
// program up to and including the given year number. Courses of other
// programs appear only when cross listed.
func (r *CatalogRepository) ListEligibleCourses(ctx context.Context, programID string, yearNumber int) ([]models.CourseDetail, error) {
	const query = `
		SELECT c.id, c.program_id, c.year_id, c.code, c.name, c.cross_listed, c.created_at, y.number AS year_number
		FROM courses c
		JOIN years y ON y.id = c.year_id
		WHERE y.number <= $2 AND (c.program_id = $1 OR c.cross_listed = TRUE)
		ORDER BY y.number, c.code`
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, programID, yearNumber); err != nil {
		return nil, fmt.Errorf("list eligible courses: %w", err)
	}
	return courses, nil
}

// FindCourse returns a course by identifier.
func (r *CatalogRepository) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, program_id, year_id, code, name, cross_listed, created_at FROM courses WHERE id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// FindCourses returns the courses matching the given identifiers. Missing
// identifiers are simply absent from the result.
func (r *CatalogRepository) FindCourses(ctx context.Context, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, program_id, year_id, code, name, cross_listed, created_at FROM courses WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build course lookup: %w", err)
	}
	query = r.db.Rebind(query)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}
	return courses, nil
}

// CreateCourse inserts a new course record.
func (r *CatalogRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (id, program_id, year_id, code, name, cross_listed, created_at) VALUES (:id, :program_id, :year_id, :code, :name, :cross_listed, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}
