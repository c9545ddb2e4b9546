package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pal-track-api/internal/models"
)

// StudentRepository provides database access for student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts a student profile record.
func (r *StudentRepository) Create(ctx context.Context, profile *models.StudentProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO student_profiles (id, user_id, program_id, year_id, gpa, created_at, updated_at) VALUES (:id, :user_id, :program_id, :year_id, :gpa, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create student profile: %w", err)
	}
	return nil
}

// FindByUserID returns the profile attached to a user.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	const query = `SELECT id, user_id, program_id, year_id, gpa, created_at, updated_at FROM student_profiles WHERE user_id = $1 LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student profile: %w", err)
	}
	return &profile, nil
}

// FindDetailByUserID returns the profile with user and catalog context.
func (r *StudentRepository) FindDetailByUserID(ctx context.Context, userID string) (*models.StudentProfileDetail, error) {
	const query = `
		SELECT sp.id, sp.user_id, sp.program_id, sp.year_id, sp.gpa, sp.created_at, sp.updated_at,
		       u.email, u.first_name, u.last_name, p.code AS program_code, y.number AS year_number
		FROM student_profiles sp
		JOIN users u ON u.id = sp.user_id
		JOIN programs p ON p.id = sp.program_id
		JOIN years y ON y.id = sp.year_id
		WHERE sp.user_id = $1 LIMIT 1`
	var detail models.StudentProfileDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student profile detail: %w", err)
	}
	return &detail, nil
}

// Update updates the program enrollment and GPA of a profile.
func (r *StudentRepository) Update(ctx context.Context, profile *models.StudentProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_profiles SET program_id = :program_id, year_id = :year_id, gpa = :gpa, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("update student profile: %w", err)
	}
	return nil
}
