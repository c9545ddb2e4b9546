package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pal-track-api/internal/models"
	"github.com/noah-isme/pal-track-api/internal/rules"
	"github.com/noah-isme/pal-track-api/internal/wizard"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

// ApplicationForm accumulates input across the tutor application steps.
type ApplicationForm struct {
	Interested       bool     `json:"interested"`
	ProgramID        string   `json:"program_id"`
	YearID           string   `json:"year_id"`
	GPA              *float64 `json:"gpa,omitempty"`
	Motivation       string   `json:"motivation"`
	ConfidenceRating int      `json:"confidence_rating"`
	Consent          bool     `json:"consent"`
	CourseIDs        []string `json:"course_ids"`
}

type applicationRepository interface {
	Create(ctx context.Context, app *models.TutorApplication) error
	FindByID(ctx context.Context, id string) (*models.TutorApplication, error)
	ExistsForUser(ctx context.Context, userID string, statuses ...models.ApplicationStatus) (bool, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.TutorApplicationDetail, int, error)
	TransitionStatus(ctx context.Context, id string, expected, next models.ApplicationStatus) (bool, error)
}

type applicationCatalogRepository interface {
	FindProgram(ctx context.Context, id string) (*models.Program, error)
	FindYear(ctx context.Context, id string) (*models.Year, error)
	FindCourses(ctx context.Context, ids []string) ([]models.Course, error)
}

type applicationUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ApplicationService drives the tutor application wizard and its review
// lifecycle. The wizard allows an explicit decline exit on the first step;
// review moves a pending application exactly once to approved or rejected.
type ApplicationService struct {
	apps    applicationRepository
	catalog applicationCatalogRepository
	users   applicationUserRepository
	ruleSet RuleReader
	logger  *zap.Logger
	machine *wizard.Machine[ApplicationForm]
}

// NewApplicationService constructs an ApplicationService instance.
func NewApplicationService(apps applicationRepository, catalog applicationCatalogRepository, users applicationUserRepository, ruleSet RuleReader, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ApplicationService{
		apps:    apps,
		catalog: catalog,
		users:   users,
		ruleSet: ruleSet,
		logger:  logger,
	}
	s.machine = wizard.New(
		wizard.Step[ApplicationForm]{Name: "interest", Validate: validateInterestStep},
		wizard.Step[ApplicationForm]{Name: "academic", Validate: validateAcademicStep},
		wizard.Step[ApplicationForm]{Name: "courses", Validate: nil},
	).WithDecline()
	return s
}

func validateInterestStep(f ApplicationForm) wizard.Errors {
	errs := wizard.Errors{}
	if !f.Interested {
		errs["interested"] = "confirm interest to continue or decline the invitation"
	}
	return errs
}

func validateAcademicStep(f ApplicationForm) wizard.Errors {
	errs := wizard.Errors{}
	if f.ProgramID == "" {
		errs["program_id"] = "program is required"
	}
	if f.YearID == "" {
		errs["year_id"] = "year is required"
	}
	if f.GPA != nil && (*f.GPA < 0 || *f.GPA > 4) {
		errs["gpa"] = "gpa must be between 0.0 and 4.0"
	}
	if f.Motivation == "" {
		errs["motivation"] = "motivation is required"
	}
	if f.ConfidenceRating < 1 || f.ConfidenceRating > 5 {
		errs["confidence_rating"] = "confidence rating must be between 1 and 5"
	}
	if !f.Consent {
		errs["consent"] = "consent is required to proceed"
	}
	return errs
}

// Start returns the initial wizard state for a user without an open or
// decided application.
func (s *ApplicationService) Start(ctx context.Context, userID string) (wizard.State[ApplicationForm], error) {
	exists, err := s.apps.ExistsForUser(ctx, userID, models.ApplicationStatusPending, models.ApplicationStatusApproved)
	if err != nil {
		return wizard.State[ApplicationForm]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing applications")
	}
	if exists {
		return wizard.State[ApplicationForm]{}, appErrors.Clone(appErrors.ErrDuplicate, "an open or approved application already exists")
	}
	return s.machine.Start(ApplicationForm{}), nil
}

// Next advances the wizard by one step. The GPA threshold check runs
// alongside the pure field checks so a low GPA surfaces as a field error,
// not a fault. State travels with the client, so the supplied step is
// untrusted: validators and database-backed checks run for every step up to
// and including the current one.
func (s *ApplicationService) Next(ctx context.Context, st wizard.State[ApplicationForm], form ApplicationForm) (wizard.State[ApplicationForm], error) {
	extra, err := s.validateThrough(ctx, st.Step, form)
	if err != nil {
		return st, err
	}
	return s.machine.Next(st, form, extra)
}

// validateThrough reruns every step validator and collaborator check for
// steps 1..upTo against the accumulated form.
func (s *ApplicationService) validateThrough(ctx context.Context, upTo int, form ApplicationForm) (wizard.Errors, error) {
	if upTo > s.machine.Len() {
		upTo = s.machine.Len()
	}
	errs := wizard.Errors{}
	for step := 1; step <= upTo; step++ {
		errs.Merge(s.machine.Validate(step, form))
		checks, err := s.stepChecks(ctx, step, form)
		if err != nil {
			return nil, err
		}
		errs.Merge(checks)
	}
	return errs, nil
}

func (s *ApplicationService) stepChecks(ctx context.Context, step int, form ApplicationForm) (wizard.Errors, error) {
	extra := wizard.Errors{}
	switch step {
	case 2:
		minGPA := s.ruleSet.MinTutorGPA(ctx)
		if !rules.MeetsGPAThreshold(form.GPA, minGPA) {
			extra["gpa"] = fmt.Sprintf("gpa must be at least %.1f to tutor", minGPA)
		}
		if form.ProgramID != "" {
			if _, err := s.catalog.FindProgram(ctx, form.ProgramID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					extra["program_id"] = "program not found"
				} else {
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
				}
			}
		}
		if form.YearID != "" {
			year, err := s.catalog.FindYear(ctx, form.YearID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					extra["year_id"] = "year not found"
				} else {
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year")
				}
			} else if form.ProgramID != "" && year.ProgramID != form.ProgramID {
				extra["year_id"] = "year does not belong to the selected program"
			}
		}
	case 3:
		return s.checkCourseSelection(ctx, form)
	}
	return extra, nil
}

func (s *ApplicationService) checkCourseSelection(ctx context.Context, form ApplicationForm) (wizard.Errors, error) {
	errs := wizard.Errors{}
	required := s.ruleSet.MaxCourseSelections(ctx)
	if !rules.WithinSelectionBounds(len(form.CourseIDs), required, required) {
		errs["course_ids"] = fmt.Sprintf("select exactly %d courses", required)
		return errs, nil
	}

	seen := make(map[string]bool, len(form.CourseIDs))
	for _, id := range form.CourseIDs {
		if seen[id] {
			errs["course_ids"] = "course selections must be distinct"
			return errs, nil
		}
		seen[id] = true
	}

	courses, err := s.catalog.FindCourses(ctx, form.CourseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	if len(courses) != len(form.CourseIDs) {
		errs["course_ids"] = "one or more selected courses do not exist"
		return errs, nil
	}
	for _, course := range courses {
		if !rules.CourseEligible(form.ProgramID, course) {
			errs["course_ids"] = fmt.Sprintf("course %s is not eligible for your program", course.Code)
			return errs, nil
		}
	}
	return errs, nil
}

// Back moves the wizard one step back.
func (s *ApplicationService) Back(st wizard.State[ApplicationForm]) (wizard.State[ApplicationForm], error) {
	return s.machine.Back(st)
}

// Cancel abandons the wizard.
func (s *ApplicationService) Cancel(st wizard.State[ApplicationForm]) (wizard.State[ApplicationForm], error) {
	return s.machine.Cancel(st)
}

// Decline records an explicit "not interested" exit from the first step.
func (s *ApplicationService) Decline(st wizard.State[ApplicationForm]) (wizard.State[ApplicationForm], error) {
	return s.machine.Decline(st)
}

// Finalize persists the submitted application in Pending status with its
// course selections. The submitted status arrives from the client, so every
// step is validated again against the accumulated form before anything is
// written.
func (s *ApplicationService) Finalize(ctx context.Context, userID string, st wizard.State[ApplicationForm]) (*models.TutorApplication, error) {
	form, err := s.machine.Finalize(st)
	if err != nil {
		return nil, err
	}

	exists, err := s.apps.ExistsForUser(ctx, userID, models.ApplicationStatusPending, models.ApplicationStatusApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing applications")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "an open or approved application already exists")
	}

	if errs, err := s.validateThrough(ctx, s.machine.Len(), form); err != nil {
		return nil, err
	} else if len(errs) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submitted application failed validation")
	}

	app := &models.TutorApplication{
		UserID:           userID,
		ProgramID:        form.ProgramID,
		YearID:           form.YearID,
		GPA:              form.GPA,
		Motivation:       form.Motivation,
		ConfidenceRating: form.ConfidenceRating,
		Consent:          form.Consent,
		Status:           models.ApplicationStatusPending,
		CourseIDs:        form.CourseIDs,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionApplicationSubmit,
		Resource:   "tutor_applications",
		ResourceID: &app.ID,
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, app.Status)),
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to record application audit log", zap.Error(err))
	}

	s.logger.Info("tutor application submitted",
		zap.String("application_id", app.ID),
		zap.String("user_id", userID))
	return app, nil
}

// Get returns an application by identifier.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.TutorApplication, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

// List returns applications with applicant context.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.TutorApplicationDetail, *models.Pagination, error) {
	apps, total, err := s.apps.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return apps, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Approve moves a pending application to approved and promotes the
// applicant's role to tutor.
func (s *ApplicationService) Approve(ctx context.Context, id, reviewerID string) error {
	return s.review(ctx, id, reviewerID, models.ApplicationStatusApproved)
}

// Reject moves a pending application to rejected.
func (s *ApplicationService) Reject(ctx context.Context, id, reviewerID string) error {
	return s.review(ctx, id, reviewerID, models.ApplicationStatusRejected)
}

func (s *ApplicationService) review(ctx context.Context, id, reviewerID string, decision models.ApplicationStatus) error {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	ok, err := s.apps.TransitionStatus(ctx, id, models.ApplicationStatusPending, decision)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition application")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "application has already been reviewed")
	}

	if decision == models.ApplicationStatusApproved {
		user, err := s.users.FindByID(ctx, app.UserID)
		if err != nil {
			s.logger.Warn("failed to load applicant for role promotion", zap.Error(err))
		} else if user.Role == models.RoleStudent {
			user.Role = models.RoleTutor
			if err := s.users.Update(ctx, user); err != nil {
				s.logger.Warn("failed to promote applicant to tutor", zap.Error(err))
			}
		}
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &reviewerID,
		Action:     models.AuditActionApplicationReview,
		Resource:   "tutor_applications",
		ResourceID: &id,
		OldValues:  []byte(fmt.Sprintf(`{"status":%q}`, models.ApplicationStatusPending)),
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, decision)),
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to record review audit log", zap.Error(err))
	}

	s.logger.Info("tutor application reviewed",
		zap.String("application_id", id),
		zap.String("decision", string(decision)))
	return nil
}
