package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/pal-track-api/internal/models"
)

func TestCourseEligible(t *testing.T) {
	sameProgram := models.Course{ID: "c1", ProgramID: "md"}
	otherProgram := models.Course{ID: "c2", ProgramID: "nursing"}
	crossListed := models.Course{ID: "c3", ProgramID: "nursing", CrossListed: true}

	assert.True(t, CourseEligible("md", sameProgram))
	assert.False(t, CourseEligible("md", otherProgram))
	assert.True(t, CourseEligible("md", crossListed))
	assert.True(t, CourseEligible("nursing", crossListed))
}

func TestMeetsGPAThreshold(t *testing.T) {
	low := 2.5
	exact := 3.0
	high := 3.8

	assert.True(t, MeetsGPAThreshold(nil, 3.0), "undisclosed GPA is non-blocking")
	assert.False(t, MeetsGPAThreshold(&low, 3.0))
	assert.True(t, MeetsGPAThreshold(&exact, 3.0))
	assert.True(t, MeetsGPAThreshold(&high, 3.0))
}

func TestWithinSelectionBounds(t *testing.T) {
	assert.False(t, WithinSelectionBounds(0, 1, 3))
	assert.True(t, WithinSelectionBounds(1, 1, 3))
	assert.True(t, WithinSelectionBounds(3, 1, 3))
	assert.False(t, WithinSelectionBounds(4, 1, 3))

	// Exact-count requirement collapses min and max.
	assert.False(t, WithinSelectionBounds(2, 3, 3))
	assert.True(t, WithinSelectionBounds(3, 3, 3))
}
