package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pal-track-api/internal/models"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

func TestSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.Session{
		TutorID:         "tutor-1",
		LearnerID:       "learner-1",
		CourseID:        "c1",
		ScheduledAt:     time.Now().Add(48 * time.Hour),
		DurationMinutes: 60,
	}
	require.NoError(t, repo.Create(context.Background(), session))
	require.Equal(t, models.SessionStatusScheduled, session.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryTransitionStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET status")).
		WithArgs("sess-1", models.SessionStatusScheduled, models.SessionStatusCompleted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET status")).
		WithArgs("sess-1", models.SessionStatusScheduled, models.SessionStatusCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.TransitionStatus(context.Background(), "sess-1", models.SessionStatusScheduled, models.SessionStatusCompleted)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.TransitionStatus(context.Background(), "sess-1", models.SessionStatusScheduled, models.SessionStatusCancelled)
	require.NoError(t, err)
	require.False(t, ok, "completed session must not cancel")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateFeedbackDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session_feedback")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session_feedback")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "session_feedback_session_id_key"})

	first := &models.Feedback{SessionID: "sess-1", Rating: 5}
	require.NoError(t, repo.CreateFeedback(context.Background(), first))

	second := &models.Feedback{SessionID: "sess-1", Rating: 2}
	err := repo.CreateFeedback(context.Background(), second)
	require.ErrorIs(t, err, appErrors.ErrFeedbackExists)
	require.NoError(t, mock.ExpectationsWereMet())
}
