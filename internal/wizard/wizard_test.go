package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testForm struct {
	Name  string
	Email string
	Picks int
}

func testMachine() *Machine[testForm] {
	return New(
		Step[testForm]{
			Name: "personal",
			Validate: func(f testForm) Errors {
				errs := Errors{}
				if f.Name == "" {
					errs["name"] = "name is required"
				}
				if f.Email == "" {
					errs["email"] = "email is required"
				}
				return errs
			},
		},
		Step[testForm]{
			Name: "selection",
			Validate: func(f testForm) Errors {
				errs := Errors{}
				if f.Picks < 1 {
					errs["picks"] = "select at least one"
				}
				return errs
			},
		},
	)
}

func TestNextAdvancesThroughSteps(t *testing.T) {
	m := testMachine()
	st := m.Start(testForm{})

	st, err := m.Next(st, testForm{Name: "Aisha", Email: "aisha@x.edu"})
	require.NoError(t, err)
	assert.Equal(t, 2, st.Step)
	assert.Equal(t, StatusInProgress, st.Status)
	assert.Empty(t, st.Errors)

	st, err = m.Next(st, testForm{Name: "Aisha", Email: "aisha@x.edu", Picks: 2})
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, st.Status)

	form, err := m.Finalize(st)
	require.NoError(t, err)
	assert.Equal(t, 2, form.Picks)
}

func TestNextStaysOnValidationErrors(t *testing.T) {
	m := testMachine()
	st := m.Start(testForm{})

	st, err := m.Next(st, testForm{Name: "Aisha"})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, Errors{"email": "email is required"}, st.Errors)

	// Same invalid input yields the same error map.
	again, err := m.Next(m.Start(testForm{}), testForm{Name: "Aisha"})
	require.NoError(t, err)
	assert.Equal(t, st.Errors, again.Errors)
}

func TestNextMergesCollaboratorErrors(t *testing.T) {
	m := testMachine()
	st := m.Start(testForm{})

	st, err := m.Next(st, testForm{Name: "Aisha", Email: "taken@x.edu"}, Errors{"email": "email already exists"})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, "email already exists", st.Errors["email"])
}

func TestFinalizeRequiresSubmission(t *testing.T) {
	m := testMachine()
	st := m.Start(testForm{})

	_, err := m.Finalize(st)
	require.Error(t, err)

	// A failed, never-corrected field can never reach Submitted.
	st, err = m.Next(st, testForm{Name: "Aisha"})
	require.NoError(t, err)
	_, err = m.Finalize(st)
	require.Error(t, err)
}

func TestBackClearsErrors(t *testing.T) {
	m := testMachine()
	st := m.Start(testForm{})

	st, err := m.Next(st, testForm{Name: "Aisha", Email: "aisha@x.edu"})
	require.NoError(t, err)

	st, err = m.Next(st, testForm{Name: "Aisha", Email: "aisha@x.edu", Picks: 0})
	require.NoError(t, err)
	require.NotEmpty(t, st.Errors)

	st, err = m.Back(st)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Step)
	assert.Empty(t, st.Errors)

	_, err = m.Back(st)
	assert.Error(t, err, "cannot go back from first step")
}

func TestCancelFromAnyStep(t *testing.T) {
	m := testMachine()
	st := m.Start(testForm{})

	cancelled, err := m.Cancel(st)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.True(t, cancelled.Terminal())

	_, err = m.Next(cancelled, testForm{})
	assert.Error(t, err)
	_, err = m.Cancel(cancelled)
	assert.Error(t, err)
}

func TestDeclineOnlyOnFirstStepOfDeclinableFlows(t *testing.T) {
	plain := testMachine()
	_, err := plain.Decline(plain.Start(testForm{}))
	assert.Error(t, err, "flow without decline support")

	m := testMachine().WithDecline()
	st := m.Start(testForm{})

	declined, err := m.Decline(st)
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, declined.Status)
	assert.NotEqual(t, StatusCancelled, declined.Status)

	st, err = m.Next(m.Start(testForm{}), testForm{Name: "Aisha", Email: "aisha@x.edu"})
	require.NoError(t, err)
	_, err = m.Decline(st)
	assert.Error(t, err, "decline past first step")
}
