package models

import "time"

// StudentProfile links a user to their program enrollment. One per user.
type StudentProfile struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ProgramID string    `db:"program_id" json:"program_id"`
	YearID    string    `db:"year_id" json:"year_id"`
	GPA       *float64  `db:"gpa" json:"gpa,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentProfileDetail includes user and catalog context for listings.
type StudentProfileDetail struct {
	StudentProfile
	Email       string `db:"email" json:"email"`
	FirstName   string `db:"first_name" json:"first_name"`
	LastName    string `db:"last_name" json:"last_name"`
	ProgramCode string `db:"program_code" json:"program_code"`
	YearNumber  int    `db:"year_number" json:"year_number"`
}
