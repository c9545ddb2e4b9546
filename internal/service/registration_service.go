package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/pal-track-api/internal/models"
	"github.com/noah-isme/pal-track-api/internal/rules"
	"github.com/noah-isme/pal-track-api/internal/wizard"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

// RegistrationForm accumulates input across the three registration steps.
type RegistrationForm struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	StudentID string   `json:"student_id"`
	ProgramID string   `json:"program_id"`
	YearID    string   `json:"year_id"`
	GPA       *float64 `json:"gpa,omitempty"`
	CourseIDs []string `json:"course_ids"`
}

type registrationUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type registrationStudentRepository interface {
	Create(ctx context.Context, profile *models.StudentProfile) error
}

type registrationCatalogRepository interface {
	FindProgram(ctx context.Context, id string) (*models.Program, error)
	FindYear(ctx context.Context, id string) (*models.Year, error)
	FindCourses(ctx context.Context, ids []string) ([]models.Course, error)
}

// RegistrationService drives the student registration wizard: personal info,
// program enrollment, then course selection bounded by the runtime rules.
type RegistrationService struct {
	users    registrationUserRepository
	students registrationStudentRepository
	catalog  registrationCatalogRepository
	ruleSet  RuleReader
	logger   *zap.Logger
	machine  *wizard.Machine[RegistrationForm]
}

// NewRegistrationService constructs a RegistrationService instance.
func NewRegistrationService(users registrationUserRepository, students registrationStudentRepository, catalog registrationCatalogRepository, ruleSet RuleReader, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RegistrationService{
		users:    users,
		students: students,
		catalog:  catalog,
		ruleSet:  ruleSet,
		logger:   logger,
	}
	s.machine = wizard.New(
		wizard.Step[RegistrationForm]{Name: "personal", Validate: validatePersonalStep},
		wizard.Step[RegistrationForm]{Name: "enrollment", Validate: validateEnrollmentStep},
		wizard.Step[RegistrationForm]{Name: "courses", Validate: nil},
	)
	return s
}

func validatePersonalStep(f RegistrationForm) wizard.Errors {
	errs := wizard.Errors{}
	if f.FirstName == "" {
		errs["first_name"] = "first name is required"
	}
	if f.LastName == "" {
		errs["last_name"] = "last name is required"
	}
	if f.Email == "" {
		errs["email"] = "email is required"
	} else if _, err := mail.ParseAddress(f.Email); err != nil {
		errs["email"] = "email is not a valid address"
	}
	if len(f.Password) < 8 {
		errs["password"] = "password must be at least 8 characters"
	}
	if f.StudentID == "" {
		errs["student_id"] = "student id is required"
	}
	return errs
}

func validateEnrollmentStep(f RegistrationForm) wizard.Errors {
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
	return errs
}

// Start returns the initial wizard state.
func (s *RegistrationService) Start() wizard.State[RegistrationForm] {
	return s.machine.Start(RegistrationForm{})
}

// Next advances the wizard by one step. State travels with the client, so
// the supplied step is untrusted: validators and database-backed checks run
// for every step up to and including the current one, and any failure from
// an earlier step pins the state in place with its error map.
func (s *RegistrationService) Next(ctx context.Context, st wizard.State[RegistrationForm], form RegistrationForm) (wizard.State[RegistrationForm], error) {
	extra, err := s.validateThrough(ctx, st.Step, form)
	if err != nil {
		return st, err
	}
	return s.machine.Next(st, form, extra)
}

// validateThrough reruns every step validator and collaborator check for
// steps 1..upTo against the accumulated form.
func (s *RegistrationService) validateThrough(ctx context.Context, upTo int, form RegistrationForm) (wizard.Errors, error) {
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

func (s *RegistrationService) stepChecks(ctx context.Context, step int, form RegistrationForm) (wizard.Errors, error) {
	extra := wizard.Errors{}
	switch step {
	case 1:
		if form.Email != "" {
			if _, err := s.users.FindByEmail(ctx, form.Email); err == nil {
				extra["email"] = "email already exists"
			} else if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
			}
		}
		if form.StudentID != "" {
			if _, err := s.users.FindByStudentID(ctx, form.StudentID); err == nil {
				extra["student_id"] = "student id already registered"
			} else if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student id")
			}
		}
	case 2:
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

func (s *RegistrationService) checkCourseSelection(ctx context.Context, form RegistrationForm) (wizard.Errors, error) {
	errs := wizard.Errors{}
	max := s.ruleSet.MaxCourseSelections(ctx)
	if !rules.WithinSelectionBounds(len(form.CourseIDs), 1, max) {
		errs["course_ids"] = fmt.Sprintf("select between 1 and %d courses", max)
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
func (s *RegistrationService) Back(st wizard.State[RegistrationForm]) (wizard.State[RegistrationForm], error) {
	return s.machine.Back(st)
}

// Cancel abandons the wizard.
func (s *RegistrationService) Cancel(st wizard.State[RegistrationForm]) (wizard.State[RegistrationForm], error) {
	return s.machine.Cancel(st)
}

// Finalize persists the submitted registration: a student user, their
// profile, and an audit trail entry. The submitted status arrives from the
// client, so every step is validated again against the accumulated form
// before anything is written.
func (s *RegistrationService) Finalize(ctx context.Context, st wizard.State[RegistrationForm]) (*models.User, error) {
	form, err := s.machine.Finalize(st)
	if err != nil {
		return nil, err
	}

	// The step check races against concurrent registrations, re-check at
	// the point of commitment.
	if _, err := s.users.FindByEmail(ctx, form.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	if errs, err := s.validateThrough(ctx, s.machine.Len(), form); err != nil {
		return nil, err
	} else if len(errs) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submitted registration failed validation")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        form.Email,
		PasswordHash: string(hash),
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Role:         models.RoleStudent,
		StudentID:    &form.StudentID,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	profile := &models.StudentProfile{
		UserID:    user.ID,
		ProgramID: form.ProgramID,
		YearID:    form.YearID,
		GPA:       form.GPA,
	}
	if err := s.students.Create(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student profile")
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionRegistration,
		Resource:   "registration",
		ResourceID: &user.ID,
		NewValues:  []byte(fmt.Sprintf(`{"email":%q,"program_id":%q}`, form.Email, form.ProgramID)),
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to record registration audit log", zap.Error(err))
	}

	s.logger.Info("student registered",
		zap.String("user_id", user.ID),
		zap.String("program_id", form.ProgramID))
	return user, nil
}
