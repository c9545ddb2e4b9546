// Package rules holds the pure eligibility predicates of the peer-assisted
// learning program. All functions are side-effect free; failures are meant to
// be reported by callers as field-scoped validation errors, never as faults.
package rules

import "github.com/noah-isme/pal-track-api/internal/models"

// CourseEligible reports whether a candidate enrolled in the given program
// may select the course. A course qualifies when it belongs to the
// candidate's own program or is cross-listed as universally eligible.
// The course's year is advisory only; catalog queries scope visible courses
// to the candidate's year, but eligibility itself does not depend on it.
func CourseEligible(programID string, course models.Course) bool {
	if course.CrossListed {
		return true
	}
	return course.ProgramID == programID
}

// MeetsGPAThreshold reports whether the disclosed GPA satisfies the
// configured minimum. An undisclosed GPA (nil) is non-blocking: the
// application proceeds and reviewers see the missing value.
func MeetsGPAThreshold(gpa *float64, minimum float64) bool {
	if gpa == nil {
		return true
	}
	return *gpa >= minimum
}

// WithinSelectionBounds reports whether the number of selected courses falls
// inside the inclusive [min, max] range.
func WithinSelectionBounds(selected, min, max int) bool {
	return selected >= min && selected <= max
}
