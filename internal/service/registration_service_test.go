package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pal-track-api/internal/models"
	"github.com/noah-isme/pal-track-api/internal/wizard"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

type mockStudentRepo struct {
	profiles []*models.StudentProfile
}

func (m *mockStudentRepo) Create(ctx context.Context, profile *models.StudentProfile) error {
	copy := *profile
	m.profiles = append(m.profiles, &copy)
	return nil
}

func newRegistrationService(t *testing.T) (*RegistrationService, *mockAuditUserRepo, *mockStudentRepo) {
	t.Helper()
	users := newMockAuditUserRepo()
	students := &mockStudentRepo{}
	catalog := newMockCatalogRepo()
	seedApplicationCatalog(catalog)
	svc := NewRegistrationService(users, students, catalog, stubRules{maxSelections: 3, minGPA: 3.0}, nil)
	return svc, users, students
}

func validRegistrationForm() RegistrationForm {
	return RegistrationForm{
		FirstName: "Aisha",
		LastName:  "Khan",
		Email:     "aisha@x.edu",
		Password:  "correct-horse",
		StudentID: "S1001",
		ProgramID: "md",
		YearID:    "y2",
		CourseIDs: []string{"c1"},
	}
}

func TestRegistrationHappyPath(t *testing.T) {
	svc, users, students := newRegistrationService(t)
	ctx := context.Background()
	form := validRegistrationForm()

	st := svc.Start()
	st, err := svc.Next(ctx, st, form)
	require.NoError(t, err)
	require.Equal(t, 2, st.Step)

	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	require.Equal(t, 3, st.Step)

	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	require.Equal(t, wizard.StatusSubmitted, st.Status)

	user, err := svc.Finalize(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
	require.Len(t, students.profiles, 1)
	assert.Equal(t, user.ID, students.profiles[0].UserID)
	assert.NotEmpty(t, users.auditLogs)
}

func TestRegistrationDuplicateEmailOnStep(t *testing.T) {
	svc, users, _ := newRegistrationService(t)
	ctx := context.Background()

	users.users["u0"] = &models.User{ID: "u0", Email: "aisha@x.edu"}

	st := svc.Start()
	st, err := svc.Next(ctx, st, validRegistrationForm())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, "email already exists", st.Errors["email"])
}

func TestRegistrationDuplicateEmailAtFinalize(t *testing.T) {
	svc, users, _ := newRegistrationService(t)
	ctx := context.Background()
	form := validRegistrationForm()

	st := svc.Start()
	st, err := svc.Next(ctx, st, form)
	require.NoError(t, err)
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	require.Equal(t, wizard.StatusSubmitted, st.Status)

	// Another registration committed the same email between submit and
	// finalize.
	users.users["u9"] = &models.User{ID: "u9", Email: form.Email}

	_, err = svc.Finalize(ctx, st)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
}

func TestRegistrationCourseBounds(t *testing.T) {
	svc, _, _ := newRegistrationService(t)
	ctx := context.Background()
	form := validRegistrationForm()

	st := svc.Start()
	st, err := svc.Next(ctx, st, form)
	require.NoError(t, err)
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)

	form.CourseIDs = nil
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	assert.Contains(t, st.Errors, "course_ids")

	form.CourseIDs = []string{"c1", "c2", "c3", "cx"}
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	assert.Contains(t, st.Errors, "course_ids")

	form.CourseIDs = []string{"c1", "cx"}
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	assert.Equal(t, wizard.StatusSubmitted, st.Status)
}

func TestRegistrationForgedSubmittedStateRejected(t *testing.T) {
	svc, users, students := newRegistrationService(t)
	ctx := context.Background()

	// State travels with the client, so a submitted status on its own must
	// not bypass the step validations.
	st := wizard.State[RegistrationForm]{
		Step:   3,
		Status: wizard.StatusSubmitted,
		Form: RegistrationForm{
			Email:    "not-an-email x",
			Password: "short",
		},
	}

	_, err := svc.Finalize(ctx, st)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, users.users)
	assert.Empty(t, students.profiles)
}

func TestRegistrationForgedStepRevalidatesEarlierSteps(t *testing.T) {
	svc, _, _ := newRegistrationService(t)
	ctx := context.Background()

	form := validRegistrationForm()
	form.Email = "not-an-email x"
	form.Password = "short"

	// Jumping straight to the last step does not skip the earlier gates.
	st := wizard.State[RegistrationForm]{Step: 3, Status: wizard.StatusInProgress, Form: form}
	st, err := svc.Next(ctx, st, form)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Step)
	assert.Contains(t, st.Errors, "email")
	assert.Contains(t, st.Errors, "password")
}

func TestRegistrationCancelNeverPersists(t *testing.T) {
	svc, users, students := newRegistrationService(t)
	ctx := context.Background()

	st := svc.Start()
	st, err := svc.Next(ctx, st, validRegistrationForm())
	require.NoError(t, err)

	st, err = svc.Cancel(st)
	require.NoError(t, err)
	assert.Equal(t, wizard.StatusCancelled, st.Status)

	_, err = svc.Finalize(ctx, st)
	require.Error(t, err)
	assert.Empty(t, users.users)
	assert.Empty(t, students.profiles)
}
