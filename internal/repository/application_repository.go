package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pal-track-api/internal/models"
)

// ApplicationRepository provides database access for tutor applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository creates a new instance of ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts an application together with its course selections in one
// transaction.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.TutorApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	if app.Status == "" {
		app.Status = models.ApplicationStatusPending
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin application tx: %w", err)
	}
	defer tx.Rollback()

	const appQuery = `INSERT INTO tutor_applications (id, user_id, program_id, year_id, gpa, motivation, confidence_rating, consent, status, created_at, updated_at) VALUES (:id, :user_id, :program_id, :year_id, :gpa, :motivation, :confidence_rating, :consent, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, appQuery, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}

	const courseQuery = `INSERT INTO application_courses (application_id, course_id) VALUES ($1, $2)`
	for _, courseID := range app.CourseIDs {
		if _, err := tx.ExecContext(ctx, courseQuery, app.ID, courseID); err != nil {
			return fmt.Errorf("create application course: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit application tx: %w", err)
	}
	return nil
}

// FindByID returns an application with its course selections.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.TutorApplication, error) {
	const query = `SELECT id, user_id, program_id, year_id, gpa, motivation, confidence_rating, consent, status, created_at, updated_at FROM tutor_applications WHERE id = $1 LIMIT 1`
	var app models.TutorApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application: %w", err)
	}

	const courseQuery = `SELECT course_id FROM application_courses WHERE application_id = $1 ORDER BY course_id`
	if err := r.db.SelectContext(ctx, &app.CourseIDs, courseQuery, id); err != nil {
		return nil, fmt.Errorf("find application courses: %w", err)
	}
	return &app, nil
}

// ExistsForUser reports whether the user already has an application in any of
// the given statuses.
func (r *ApplicationRepository) ExistsForUser(ctx context.Context, userID string, statuses ...models.ApplicationStatus) (bool, error) {
	if len(statuses) == 0 {
		statuses = []models.ApplicationStatus{
			models.ApplicationStatusPending,
			models.ApplicationStatusApproved,
			models.ApplicationStatusRejected,
		}
	}
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM tutor_applications WHERE user_id = ? AND status IN (?)`, userID, statuses)
	if err != nil {
		return false, fmt.Errorf("build application existence query: %w", err)
	}
	query = r.db.Rebind(query)
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check application existence: %w", err)
	}
	return count > 0, nil
}

// HasApprovedForCourse reports whether the user holds an approved application
// covering the given course.
func (r *ApplicationRepository) HasApprovedForCourse(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `
		SELECT COUNT(*)
		FROM tutor_applications ta
		JOIN application_courses ac ON ac.application_id = ta.id
		WHERE ta.user_id = $1 AND ac.course_id = $2 AND ta.status = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, courseID, models.ApplicationStatusApproved); err != nil {
		return false, fmt.Errorf("check approved application: %w", err)
	}
	return count > 0, nil
}

// List returns applications with applicant context based on filters.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.TutorApplicationDetail, int, error) {
	baseQuery := `
		FROM tutor_applications ta
		JOIN users u ON u.id = ta.user_id
		JOIN programs p ON p.id = ta.program_id
		JOIN years y ON y.id = ta.year_id
		WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("ta.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("ta.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("ta.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"created_at": "ta.created_at",
		"updated_at": "ta.updated_at",
		"status":     "ta.status",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "ta.created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`
		SELECT ta.id, ta.user_id, ta.program_id, ta.year_id, ta.gpa, ta.motivation, ta.confidence_rating, ta.consent, ta.status, ta.created_at, ta.updated_at,
		       u.email AS applicant_email, u.first_name || ' ' || u.last_name AS applicant_name,
		       p.code AS program_code, y.number AS year_number
		%s ORDER BY %s %s LIMIT %d OFFSET %d`, baseQuery, column, sortOrder, pageSize, offset)

	var apps []models.TutorApplicationDetail
	if err := r.db.SelectContext(ctx, &apps, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	return apps, total, nil
}

// TransitionStatus moves an application from the expected status to the next
// one. The update is conditional on the current status so concurrent reviews
// cannot both win; a false return means the application was not in the
// expected status.
func (r *ApplicationRepository) TransitionStatus(ctx context.Context, id string, expected, next models.ApplicationStatus) (bool, error) {
	const query = `UPDATE tutor_applications SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, expected, next, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("transition application status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition application status: %w", err)
	}
	return affected == 1, nil
}
