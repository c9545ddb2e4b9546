package models

import "time"

// ApplicationStatus enumerates tutor application lifecycle states.
// The status starts at Pending and moves exactly once, to Approved or
// Rejected; it never reverts.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusApproved ApplicationStatus = "APPROVED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

// TutorApplication is a candidate's request to tutor a bounded set of courses.
type TutorApplication struct {
	ID               string            `db:"id" json:"id"`
	UserID           string            `db:"user_id" json:"user_id"`
	ProgramID        string            `db:"program_id" json:"program_id"`
	YearID           string            `db:"year_id" json:"year_id"`
	GPA              *float64          `db:"gpa" json:"gpa,omitempty"`
	Motivation       string            `db:"motivation" json:"motivation"`
	ConfidenceRating int               `db:"confidence_rating" json:"confidence_rating"`
	Consent          bool              `db:"consent" json:"consent"`
	Status           ApplicationStatus `db:"status" json:"status"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`

	// CourseIDs is loaded from the application_courses join table.
	CourseIDs []string `db:"-" json:"course_ids"`
}

// TutorApplicationDetail joins applicant and catalog context for listings.
type TutorApplicationDetail struct {
	TutorApplication
	ApplicantEmail string `db:"applicant_email" json:"applicant_email"`
	ApplicantName  string `db:"applicant_name" json:"applicant_name"`
	ProgramCode    string `db:"program_code" json:"program_code"`
	YearNumber     int    `db:"year_number" json:"year_number"`
}

// ApplicationFilter captures filtering criteria for listing applications.
type ApplicationFilter struct {
	UserID    string
	ProgramID string
	Status    ApplicationStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
