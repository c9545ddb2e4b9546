package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pal-track-api/internal/models"
	"github.com/noah-isme/pal-track-api/internal/wizard"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

type mockApplicationRepo struct {
	apps        map[string]*models.TutorApplication
	transitions []string
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[string]*models.TutorApplication)}
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *models.TutorApplication) error {
	if app.ID == "" {
		app.ID = "app-" + app.UserID
	}
	copy := *app
	m.apps[app.ID] = &copy
	return nil
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.TutorApplication, error) {
	if a, ok := m.apps[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) ExistsForUser(ctx context.Context, userID string, statuses ...models.ApplicationStatus) (bool, error) {
	for _, a := range m.apps {
		if a.UserID != userID {
			continue
		}
		for _, status := range statuses {
			if a.Status == status {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *mockApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.TutorApplicationDetail, int, error) {
	var details []models.TutorApplicationDetail
	for _, a := range m.apps {
		details = append(details, models.TutorApplicationDetail{TutorApplication: *a})
	}
	return details, len(details), nil
}

func (m *mockApplicationRepo) TransitionStatus(ctx context.Context, id string, expected, next models.ApplicationStatus) (bool, error) {
	a, ok := m.apps[id]
	if !ok || a.Status != expected {
		return false, nil
	}
	a.Status = next
	m.transitions = append(m.transitions, string(next))
	return true, nil
}

func seedApplicationCatalog(catalog *mockCatalogRepo) {
	catalog.programs["md"] = &models.Program{ID: "md", Code: "MD"}
	catalog.years["y2"] = &models.Year{ID: "y2", ProgramID: "md", Number: 2}
	catalog.courses["c1"] = &models.Course{ID: "c1", ProgramID: "md", YearID: "y2", Code: "ANAT201"}
	catalog.courses["c2"] = &models.Course{ID: "c2", ProgramID: "md", YearID: "y2", Code: "PHYS202"}
	catalog.courses["c3"] = &models.Course{ID: "c3", ProgramID: "md", YearID: "y2", Code: "BIOC203"}
	catalog.courses["cx"] = &models.Course{ID: "cx", ProgramID: "nursing", YearID: "y2", Code: "COMM101", CrossListed: true}
	catalog.courses["cn"] = &models.Course{ID: "cn", ProgramID: "nursing", YearID: "y2", Code: "NURS210"}
}

func newApplicationService(t *testing.T) (*ApplicationService, *mockApplicationRepo, *mockAuditUserRepo) {
	t.Helper()
	apps := newMockApplicationRepo()
	catalog := newMockCatalogRepo()
	seedApplicationCatalog(catalog)
	users := newMockAuditUserRepo()
	users.users["u1"] = &models.User{ID: "u1", Email: "a@x.edu", Role: models.RoleStudent, Active: true}
	svc := NewApplicationService(apps, catalog, users, stubRules{maxSelections: 3, minGPA: 3.0}, nil)
	return svc, apps, users
}

func submitApplication(t *testing.T, svc *ApplicationService, form ApplicationForm) wizard.State[ApplicationForm] {
	t.Helper()
	ctx := context.Background()
	st, err := svc.Start(ctx, "u1")
	require.NoError(t, err)
	st, err = svc.Next(ctx, st, ApplicationForm{Interested: true})
	require.NoError(t, err)
	require.Equal(t, 2, st.Step)
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	require.Empty(t, st.Errors)
	require.Equal(t, 3, st.Step)
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	return st
}

func validApplicationForm() ApplicationForm {
	gpa := 3.5
	return ApplicationForm{
		Interested:       true,
		ProgramID:        "md",
		YearID:           "y2",
		GPA:              &gpa,
		Motivation:       "I want to pass on what helped me",
		ConfidenceRating: 4,
		Consent:          true,
		CourseIDs:        []string{"c1", "c2", "c3"},
	}
}

func TestApplicationWizardSubmitAndFinalize(t *testing.T) {
	svc, apps, _ := newApplicationService(t)
	st := submitApplication(t, svc, validApplicationForm())
	require.Equal(t, wizard.StatusSubmitted, st.Status)

	app, err := svc.Finalize(context.Background(), "u1", st)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Len(t, app.CourseIDs, 3)
	assert.Len(t, apps.apps, 1)
}

func TestApplicationGPABelowThresholdIsFieldError(t *testing.T) {
	svc, _, _ := newApplicationService(t)
	ctx := context.Background()

	st, err := svc.Start(ctx, "u1")
	require.NoError(t, err)
	st, err = svc.Next(ctx, st, ApplicationForm{Interested: true})
	require.NoError(t, err)

	form := validApplicationForm()
	low := 2.4
	form.GPA = &low
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err, "threshold failure is data, not a fault")
	assert.Equal(t, 2, st.Step)
	assert.Contains(t, st.Errors, "gpa")
	assert.Len(t, st.Errors, 1, "only the gpa field fails")
}

func TestApplicationUndisclosedGPAPasses(t *testing.T) {
	svc, _, _ := newApplicationService(t)
	form := validApplicationForm()
	form.GPA = nil
	st := submitApplication(t, svc, form)
	require.Equal(t, wizard.StatusSubmitted, st.Status)
}

func TestApplicationRequiresExactCourseCount(t *testing.T) {
	svc, _, _ := newApplicationService(t)
	ctx := context.Background()

	st, err := svc.Start(ctx, "u1")
	require.NoError(t, err)
	st, err = svc.Next(ctx, st, ApplicationForm{Interested: true})
	require.NoError(t, err)
	form := validApplicationForm()
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)

	form.CourseIDs = []string{"c1", "c2"}
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Step)
	assert.Contains(t, st.Errors, "course_ids")

	form.CourseIDs = []string{"c1", "c2", "cn"}
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	assert.Contains(t, st.Errors["course_ids"], "NURS210")

	// Cross listed course of another program is acceptable.
	form.CourseIDs = []string{"c1", "c2", "cx"}
	st, err = svc.Next(ctx, st, form)
	require.NoError(t, err)
	assert.Equal(t, wizard.StatusSubmitted, st.Status)
}

func TestApplicationDeclineFromFirstStep(t *testing.T) {
	svc, apps, _ := newApplicationService(t)
	ctx := context.Background()

	st, err := svc.Start(ctx, "u1")
	require.NoError(t, err)
	st, err = svc.Decline(st)
	require.NoError(t, err)
	assert.Equal(t, wizard.StatusDeclined, st.Status)

	_, err = svc.Finalize(ctx, "u1", st)
	require.Error(t, err)
	assert.Empty(t, apps.apps)
}

func TestApplicationDoubleReview(t *testing.T) {
	svc, _, users := newApplicationService(t)
	ctx := context.Background()

	st := submitApplication(t, svc, validApplicationForm())
	app, err := svc.Finalize(ctx, "u1", st)
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, app.ID, "admin-1"))

	err = svc.Reject(ctx, app.ID, "admin-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)

	// Approval promoted the student to tutor.
	assert.Equal(t, models.RoleTutor, users.users["u1"].Role)
}

func TestApplicationForgedSubmittedStateRejected(t *testing.T) {
	svc, apps, _ := newApplicationService(t)
	ctx := context.Background()

	// State travels with the client, so a submitted status on its own must
	// not bypass the step validations.
	st := wizard.State[ApplicationForm]{
		Step:   3,
		Status: wizard.StatusSubmitted,
		Form:   ApplicationForm{Interested: true, ProgramID: "md"},
	}

	_, err := svc.Finalize(ctx, "u1", st)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, apps.apps)
}

func TestApplicationStartBlockedByOpenApplication(t *testing.T) {
	svc, apps, _ := newApplicationService(t)
	ctx := context.Background()

	apps.apps["existing"] = &models.TutorApplication{ID: "existing", UserID: "u1", Status: models.ApplicationStatusPending}

	_, err := svc.Start(ctx, "u1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
}
