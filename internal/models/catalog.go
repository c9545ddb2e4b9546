package models

import "time"

// Program represents an academic degree track (e.g. Medicine, Nursing).
type Program struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Year is a numbered stage within a program. (program_id, number) is unique.
type Year struct {
	ID        string `db:"id" json:"id"`
	ProgramID string `db:"program_id" json:"program_id"`
	Number    int    `db:"number" json:"number"`
	Name      string `db:"name" json:"name"`
}

// Course is a unit of study belonging to a program and year.
// CrossListed marks courses eligible regardless of the candidate's program.
type Course struct {
	ID          string    `db:"id" json:"id"`
	ProgramID   string    `db:"program_id" json:"program_id"`
	YearID      string    `db:"year_id" json:"year_id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	CrossListed bool      `db:"cross_listed" json:"cross_listed"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CourseDetail joins a course with its year number for catalog listings.
type CourseDetail struct {
	Course
	YearNumber int `db:"year_number" json:"year_number"`
}
