package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pal-track-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplicationRepositoryCreateWithCourses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tutor_applications")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO application_courses")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO application_courses")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO application_courses")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	gpa := 3.6
	app := &models.TutorApplication{
		UserID:           "user-1",
		ProgramID:        "prog-1",
		YearID:           "year-2",
		GPA:              &gpa,
		Motivation:       "I enjoyed anatomy and want to help juniors",
		ConfidenceRating: 4,
		Consent:          true,
		CourseIDs:        []string{"c1", "c2", "c3"},
	}
	require.NoError(t, repo.Create(context.Background(), app))
	require.NotEmpty(t, app.ID)
	require.Equal(t, models.ApplicationStatusPending, app.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryTransitionStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tutor_applications SET status")).
		WithArgs("app-1", models.ApplicationStatusPending, models.ApplicationStatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.TransitionStatus(context.Background(), "app-1", models.ApplicationStatusPending, models.ApplicationStatusApproved)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryTransitionStatusAlreadyMoved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tutor_applications SET status")).
		WithArgs("app-1", models.ApplicationStatusPending, models.ApplicationStatusRejected, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.TransitionStatus(context.Background(), "app-1", models.ApplicationStatusPending, models.ApplicationStatusRejected)
	require.NoError(t, err)
	require.False(t, ok, "conditional update must not match a reviewed application")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryFindByIDLoadsCourses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "program_id", "year_id", "gpa", "motivation", "confidence_rating", "consent", "status", "created_at", "updated_at"}).
		AddRow("app-1", "user-1", "prog-1", "year-2", nil, "motivated", 5, true, "PENDING", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, program_id, year_id")).
		WithArgs("app-1").
		WillReturnRows(rows)
	courseRows := sqlmock.NewRows([]string{"course_id"}).AddRow("c1").AddRow("c2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id FROM application_courses")).
		WithArgs("app-1").
		WillReturnRows(courseRows)

	app, err := repo.FindByID(context.Background(), "app-1")
	require.NoError(t, err)
	require.Nil(t, app.GPA)
	require.Equal(t, []string{"c1", "c2"}, app.CourseIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}
