package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/noah-isme/pal-track-api/internal/models"
)

// stubRules satisfies RuleReader with fixed values.
type stubRules struct {
	maxSelections int
	minGPA        float64
}

func (s stubRules) MaxCourseSelections(ctx context.Context) int { return s.maxSelections }
func (s stubRules) MinTutorGPA(ctx context.Context) float64     { return s.minGPA }

// mockCatalogRepo backs catalog lookups with in-memory maps.
type mockCatalogRepo struct {
	programs map[string]*models.Program
	years    map[string]*models.Year
	courses  map[string]*models.Course
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		programs: make(map[string]*models.Program),
		years:    make(map[string]*models.Year),
		courses:  make(map[string]*models.Course),
	}
}

func (m *mockCatalogRepo) ListPrograms(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	for _, p := range m.programs {
		programs = append(programs, *p)
	}
	return programs, nil
}

func (m *mockCatalogRepo) FindProgram(ctx context.Context, id string) (*models.Program, error) {
	if p, ok := m.programs[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalogRepo) ListYears(ctx context.Context, programID string) ([]models.Year, error) {
	var years []models.Year
	for _, y := range m.years {
		if y.ProgramID == programID {
			years = append(years, *y)
		}
	}
	return years, nil
}

func (m *mockCatalogRepo) FindYear(ctx context.Context, id string) (*models.Year, error) {
	if y, ok := m.years[id]; ok {
		copy := *y
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalogRepo) ListEligibleCourses(ctx context.Context, programID string, yearNumber int) ([]models.CourseDetail, error) {
	var details []models.CourseDetail
	for _, c := range m.courses {
		year, ok := m.years[c.YearID]
		if !ok || year.Number > yearNumber {
			continue
		}
		if c.ProgramID != programID && !c.CrossListed {
			continue
		}
		details = append(details, models.CourseDetail{Course: *c, YearNumber: year.Number})
	}
	return details, nil
}

func (m *mockCatalogRepo) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalogRepo) FindCourses(ctx context.Context, ids []string) ([]models.Course, error) {
	var courses []models.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			courses = append(courses, *c)
		}
	}
	return courses, nil
}

func (m *mockCatalogRepo) CreateCourse(ctx context.Context, course *models.Course) error {
	copy := *course
	m.courses[course.ID] = &copy
	return nil
}

// mockAuditUserRepo covers the user repository surface the application and
// registration services touch.
type mockAuditUserRepo struct {
	users     map[string]*models.User
	auditLogs []*models.AuditLog
}

func newMockAuditUserRepo() *mockAuditUserRepo {
	return &mockAuditUserRepo{users: make(map[string]*models.User)}
}

func (m *mockAuditUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuditUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuditUserRepo) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	for _, u := range m.users {
		if u.StudentID != nil && *u.StudentID == studentID {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuditUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	user.CreatedAt = time.Now()
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockAuditUserRepo) Update(ctx context.Context, user *models.User) error {
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockAuditUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}
