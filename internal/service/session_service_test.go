package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pal-track-api/internal/models"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

type mockSessionRepo struct {
	sessions map[string]*models.Session
	feedback map[string]*models.Feedback
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		sessions: make(map[string]*models.Session),
		feedback: make(map[string]*models.Feedback),
	}
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = "sess-1"
	}
	copy := *session
	m.sessions[session.ID] = &copy
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error) {
	var details []models.SessionDetail
	for _, s := range m.sessions {
		details = append(details, models.SessionDetail{Session: *s})
	}
	return details, len(details), nil
}

func (m *mockSessionRepo) TransitionStatus(ctx context.Context, id string, expected, next models.SessionStatus) (bool, error) {
	s, ok := m.sessions[id]
	if !ok || s.Status != expected {
		return false, nil
	}
	s.Status = next
	return true, nil
}

func (m *mockSessionRepo) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	if _, ok := m.feedback[feedback.SessionID]; ok {
		return appErrors.ErrFeedbackExists
	}
	if feedback.ID == "" {
		feedback.ID = "fb-1"
	}
	copy := *feedback
	m.feedback[feedback.SessionID] = &copy
	return nil
}

func (m *mockSessionRepo) FindFeedbackBySession(ctx context.Context, sessionID string) (*models.Feedback, error) {
	if f, ok := m.feedback[sessionID]; ok {
		copy := *f
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type mockApprovalRepo struct {
	approved map[string]bool // tutorID:courseID
}

func (m *mockApprovalRepo) HasApprovedForCourse(ctx context.Context, userID, courseID string) (bool, error) {
	return m.approved[userID+":"+courseID], nil
}

func newSessionService(t *testing.T) (*SessionService, *mockSessionRepo) {
	t.Helper()
	sessions := newMockSessionRepo()
	approvals := &mockApprovalRepo{approved: map[string]bool{"tutor-1:c1": true}}
	catalog := newMockCatalogRepo()
	seedApplicationCatalog(catalog)
	svc := NewSessionService(sessions, approvals, catalog, nil, nil)
	return svc, sessions
}

func scheduleRequest() ScheduleSessionRequest {
	return ScheduleSessionRequest{
		TutorID:         "tutor-1",
		LearnerID:       "learner-1",
		CourseID:        "c1",
		ScheduledAt:     time.Now().Add(24 * time.Hour),
		DurationMinutes: 60,
	}
}

func TestSessionScheduleRequiresApprovedTutor(t *testing.T) {
	svc, _ := newSessionService(t)
	ctx := context.Background()

	session, err := svc.Schedule(ctx, scheduleRequest())
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusScheduled, session.Status)

	req := scheduleRequest()
	req.CourseID = "c2"
	_, err = svc.Schedule(ctx, req)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestSessionScheduleRejectsSelfTutoring(t *testing.T) {
	svc, _ := newSessionService(t)

	req := scheduleRequest()
	req.LearnerID = req.TutorID
	_, err := svc.Schedule(context.Background(), req)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSessionTransitionsOnce(t *testing.T) {
	svc, _ := newSessionService(t)
	ctx := context.Background()

	session, err := svc.Schedule(ctx, scheduleRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Complete(ctx, session.ID))

	err = svc.Cancel(ctx, session.ID)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestFeedbackLifecycle(t *testing.T) {
	svc, _ := newSessionService(t)
	ctx := context.Background()

	session, err := svc.Schedule(ctx, scheduleRequest())
	require.NoError(t, err)

	// Feedback before completion is a precondition failure.
	_, err = svc.AttachFeedback(ctx, session.ID, "learner-1", FeedbackRequest{Rating: 5})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSessionNotCompleted.Code, appErr.Code)

	require.NoError(t, svc.Complete(ctx, session.ID))

	// Only the learner may submit.
	_, err = svc.AttachFeedback(ctx, session.ID, "stranger", FeedbackRequest{Rating: 5})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	feedback, err := svc.AttachFeedback(ctx, session.ID, "learner-1", FeedbackRequest{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, feedback.Rating)

	// A second submission hits the uniqueness backstop.
	_, err = svc.AttachFeedback(ctx, session.ID, "learner-1", FeedbackRequest{Rating: 1})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrFeedbackExists.Code, appErr.Code)

	stored, err := svc.GetFeedback(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Rating, "first feedback wins")
}
