package models

import "time"

// SessionStatus enumerates session lifecycle states. A session starts
// Scheduled and moves exactly once, to Completed or Cancelled.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "SCHEDULED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// Session records a scheduled tutor-learner meeting for one course.
type Session struct {
	ID              string        `db:"id" json:"id"`
	TutorID         string        `db:"tutor_id" json:"tutor_id"`
	LearnerID       string        `db:"learner_id" json:"learner_id"`
	CourseID        string        `db:"course_id" json:"course_id"`
	ScheduledAt     time.Time     `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int           `db:"duration_minutes" json:"duration_minutes"`
	Status          SessionStatus `db:"status" json:"status"`
	Notes           string        `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// SessionDetail joins participant and course context for listings.
type SessionDetail struct {
	Session
	TutorName   string `db:"tutor_name" json:"tutor_name"`
	LearnerName string `db:"learner_name" json:"learner_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
}

// SessionFilter captures filtering criteria for listing sessions.
type SessionFilter struct {
	TutorID   string
	LearnerID string
	CourseID  string
	Status    SessionStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Feedback is a learner's post-session rating, at most one per session.
type Feedback struct {
	ID           string    `db:"id" json:"id"`
	SessionID    string    `db:"session_id" json:"session_id"`
	Rating       int       `db:"rating" json:"rating"`
	Satisfaction *int      `db:"satisfaction" json:"satisfaction,omitempty"`
	Helpfulness  *int      `db:"helpfulness" json:"helpfulness,omitempty"`
	Comments     string    `db:"comments" json:"comments,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
