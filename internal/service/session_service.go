package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pal-track-api/internal/models"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

// ScheduleSessionRequest is the payload for booking a tutoring session.
type ScheduleSessionRequest struct {
	TutorID         string    `json:"tutor_id" validate:"required"`
	LearnerID       string    `json:"learner_id" validate:"required"`
	CourseID        string    `json:"course_id" validate:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=15,max=240"`
	Notes           string    `json:"notes"`
}

// FeedbackRequest is the payload for post-session feedback.
type FeedbackRequest struct {
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Satisfaction *int   `json:"satisfaction" validate:"omitempty,min=1,max=5"`
	Helpfulness  *int   `json:"helpfulness" validate:"omitempty,min=1,max=5"`
	Comments     string `json:"comments"`
}

type sessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error)
	TransitionStatus(ctx context.Context, id string, expected, next models.SessionStatus) (bool, error)
	CreateFeedback(ctx context.Context, feedback *models.Feedback) error
	FindFeedbackBySession(ctx context.Context, sessionID string) (*models.Feedback, error)
}

type sessionApplicationRepository interface {
	HasApprovedForCourse(ctx context.Context, userID, courseID string) (bool, error)
}

type sessionCatalogRepository interface {
	FindCourse(ctx context.Context, id string) (*models.Course, error)
}

// SessionService manages the session lifecycle and its feedback. A session
// is scheduled against an approved tutor, moves exactly once to completed or
// cancelled, and carries at most one feedback entry.
type SessionService struct {
	sessions  sessionRepository
	apps      sessionApplicationRepository
	catalog   sessionCatalogRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(sessions sessionRepository, apps sessionApplicationRepository, catalog sessionCatalogRepository, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SessionService{sessions: sessions, apps: apps, catalog: catalog, validator: validate, logger: logger}
}

// Schedule books a new session after checking the tutor is approved for the
// course and the participants are distinct.
func (s *SessionService) Schedule(ctx context.Context, req ScheduleSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if req.TutorID == req.LearnerID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tutor and learner must be different users")
	}

	if _, err := s.catalog.FindCourse(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	approved, err := s.apps.HasApprovedForCourse(ctx, req.TutorID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tutor approval")
	}
	if !approved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "tutor does not hold an approved application for this course")
	}

	session := &models.Session{
		TutorID:         req.TutorID,
		LearnerID:       req.LearnerID,
		CourseID:        req.CourseID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          models.SessionStatusScheduled,
		Notes:           req.Notes,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.logger.Info("session scheduled",
		zap.String("session_id", session.ID),
		zap.String("tutor_id", session.TutorID),
		zap.String("course_id", session.CourseID))
	return session, nil
}

// Get returns a session by identifier.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// List returns sessions with participant context.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, *models.Pagination, error) {
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return sessions, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Complete moves a scheduled session to completed.
func (s *SessionService) Complete(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.SessionStatusCompleted)
}

// Cancel moves a scheduled session to cancelled.
func (s *SessionService) Cancel(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.SessionStatusCancelled)
}

func (s *SessionService) transition(ctx context.Context, id string, next models.SessionStatus) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	ok, err := s.sessions.TransitionStatus(ctx, id, models.SessionStatusScheduled, next)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition session")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "session is no longer scheduled")
	}
	s.logger.Info("session transitioned",
		zap.String("session_id", id),
		zap.String("status", string(next)))
	return nil
}

// AttachFeedback records learner feedback on a completed session. The unique
// constraint on session_id is the atomic backstop against concurrent
// duplicate submissions.
func (s *SessionService) AttachFeedback(ctx context.Context, sessionID, learnerID string, req FeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.LearnerID != learnerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the session learner may submit feedback")
	}
	if session.Status != models.SessionStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrSessionNotCompleted, "feedback requires a completed session")
	}

	feedback := &models.Feedback{
		SessionID:    sessionID,
		Rating:       req.Rating,
		Satisfaction: req.Satisfaction,
		Helpfulness:  req.Helpfulness,
		Comments:     req.Comments,
	}
	if err := s.sessions.CreateFeedback(ctx, feedback); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store feedback")
	}

	s.logger.Info("session feedback recorded",
		zap.String("session_id", sessionID),
		zap.Int("rating", feedback.Rating))
	return feedback, nil
}

// GetFeedback returns the feedback attached to a session.
func (s *SessionService) GetFeedback(ctx context.Context, sessionID string) (*models.Feedback, error) {
	feedback, err := s.sessions.FindFeedbackBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no feedback for session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	return feedback, nil
}
