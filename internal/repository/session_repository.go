package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/pal-track-api/internal/models"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

// SessionRepository provides database access for sessions and feedback.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session record.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = models.SessionStatusScheduled
	}

	const query = `INSERT INTO sessions (id, tutor_id, learner_id, course_id, scheduled_at, duration_minutes, status, notes, created_at, updated_at) VALUES (:id, :tutor_id, :learner_id, :course_id, :scheduled_at, :duration_minutes, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindByID returns a session by identifier.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT id, tutor_id, learner_id, course_id, scheduled_at, duration_minutes, status, notes, created_at, updated_at FROM sessions WHERE id = $1 LIMIT 1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// List returns sessions with participant context based on filters.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error) {
	baseQuery := `
		FROM sessions s
		JOIN users t ON t.id = s.tutor_id
		JOIN users l ON l.id = s.learner_id
		JOIN courses c ON c.id = s.course_id
		WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("s.tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.LearnerID != "" {
		conditions = append(conditions, fmt.Sprintf("s.learner_id = $%d", len(args)+1))
		args = append(args, filter.LearnerID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("s.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"scheduled_at": "s.scheduled_at",
		"created_at":   "s.created_at",
		"status":       "s.status",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.scheduled_at"
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
		SELECT s.id, s.tutor_id, s.learner_id, s.course_id, s.scheduled_at, s.duration_minutes, s.status, s.notes, s.created_at, s.updated_at,
		       t.first_name || ' ' || t.last_name AS tutor_name,
		       l.first_name || ' ' || l.last_name AS learner_name,
		       c.code AS course_code
		%s ORDER BY %s %s LIMIT %d OFFSET %d`, baseQuery, column, sortOrder, pageSize, offset)

	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// TransitionStatus moves a session from the expected status to the next one.
// The update is conditional on the current status; a false return means the
// session was not in the expected status.
func (r *SessionRepository) TransitionStatus(ctx context.Context, id string, expected, next models.SessionStatus) (bool, error) {
	const query = `UPDATE sessions SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, expected, next, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("transition session status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition session status: %w", err)
	}
	return affected == 1, nil
}

// CreateFeedback inserts feedback for a session. The session_id column
// carries a unique constraint; a violation maps to ErrFeedbackExists so the
// at-most-one rule holds even under concurrent submissions.
func (r *SessionRepository) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO session_feedback (id, session_id, rating, satisfaction, helpfulness, comments, created_at) VALUES (:id, :session_id, :rating, :satisfaction, :helpfulness, :comments, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, feedback); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return appErrors.ErrFeedbackExists
		}
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// FindFeedbackBySession returns the feedback attached to a session.
func (r *SessionRepository) FindFeedbackBySession(ctx context.Context, sessionID string) (*models.Feedback, error) {
	const query = `SELECT id, session_id, rating, satisfaction, helpfulness, comments, created_at FROM session_feedback WHERE session_id = $1 LIMIT 1`
	var feedback models.Feedback
	if err := r.db.GetContext(ctx, &feedback, query, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find feedback: %w", err)
	}
	return &feedback, nil
}
