// Package wizard implements a generic multi-step form progression with
// per-step validation gating. Both the student registration flow and the
// tutor application flow are built on it.
//
// A Machine is the immutable description of a flow (its ordered steps); a
// State is one caller's position inside it. State values are passed by value
// and every operation returns a fresh State, so callers can safely keep or
// replay intermediate states.
package wizard

import (
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

// Errors maps field names to validation messages. An empty map means the
// step's input is acceptable. Validation failures are surfaced as data here,
// never as Go errors.
type Errors map[string]string

// Merge copies src entries into e, overwriting on key collision.
func (e Errors) Merge(src Errors) {
	for field, msg := range src {
		e[field] = msg
	}
}

// Validator inspects the accumulated form state and reports field errors.
// Implementations must check fields in a fixed order so the resulting map
// contents are deterministic for identical input.
type Validator[S any] func(form S) Errors

// Step is a named stage of a flow with its validation gate.
type Step[S any] struct {
	Name     string
	Validate Validator[S]
}

// Status enumerates wizard lifecycle states.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusSubmitted  Status = "SUBMITTED"
	StatusCancelled  Status = "CANCELLED"

	// StatusDeclined is a side terminal reached from the first step when the
	// candidate actively declines interest. It is distinct from Cancelled so
	// callers can tell active decline apart from mid-form abandonment.
	StatusDeclined Status = "DECLINED"
)

// State captures one caller's progress through a flow. Step is 1-based and
// meaningful only while Status is StatusInProgress.
type State[S any] struct {
	Step   int    `json:"step"`
	Status Status `json:"status"`
	Form   S      `json:"form"`
	Errors Errors `json:"errors,omitempty"`
}

// Terminal reports whether no further transitions are possible.
func (s State[S]) Terminal() bool {
	return s.Status != StatusInProgress
}

// Machine describes an ordered flow of validated steps.
type Machine[S any] struct {
	steps        []Step[S]
	allowDecline bool
}

// New builds a machine over the given steps.
func New[S any](steps ...Step[S]) *Machine[S] {
	return &Machine[S]{steps: steps}
}

// WithDecline enables the decline side terminal from the first step.
func (m *Machine[S]) WithDecline() *Machine[S] {
	m.allowDecline = true
	return m
}

// Len returns the number of steps.
func (m *Machine[S]) Len() int {
	return len(m.steps)
}

// StepName returns the name of the 1-based step index.
func (m *Machine[S]) StepName(i int) string {
	if i < 1 || i > len(m.steps) {
		return ""
	}
	return m.steps[i-1].Name
}

// Start returns the initial state positioned on the first step.
func (m *Machine[S]) Start(form S) State[S] {
	return State[S]{Step: 1, Status: StatusInProgress, Form: form}
}

// Validate runs the given 1-based step's validator against the form. Steps
// without a validator, and out-of-range indexes, report no errors.
func (m *Machine[S]) Validate(step int, form S) Errors {
	if step < 1 || step > len(m.steps) {
		return Errors{}
	}
	if validate := m.steps[step-1].Validate; validate != nil {
		return validate(form)
	}
	return Errors{}
}

// Next validates the submitted form against the current step. When the
// combined error map (validator output merged with any extra collaborator
// errors) is non-empty the state stays on the current step carrying the
// errors; otherwise it advances, reaching StatusSubmitted past the last step.
func (m *Machine[S]) Next(st State[S], form S, extra ...Errors) (State[S], error) {
	if st.Terminal() {
		return st, appErrors.Clone(appErrors.ErrInvalidTransition, "wizard already finished")
	}
	if st.Step < 1 || st.Step > len(m.steps) {
		return st, appErrors.Clone(appErrors.ErrInvalidTransition, "wizard step out of range")
	}

	errs := Errors{}
	errs.Merge(m.Validate(st.Step, form))
	for _, ex := range extra {
		errs.Merge(ex)
	}

	next := State[S]{Step: st.Step, Status: StatusInProgress, Form: form}
	if len(errs) > 0 {
		next.Errors = errs
		return next, nil
	}

	if st.Step == len(m.steps) {
		next.Status = StatusSubmitted
		return next, nil
	}

	next.Step = st.Step + 1
	return next, nil
}

// Back moves to the previous step and clears displayed errors. It does not
// re-validate: the earlier step's stored input was already accepted.
func (m *Machine[S]) Back(st State[S]) (State[S], error) {
	if st.Terminal() {
		return st, appErrors.Clone(appErrors.ErrInvalidTransition, "wizard already finished")
	}
	if st.Step <= 1 {
		return st, appErrors.Clone(appErrors.ErrInvalidTransition, "already on first step")
	}
	return State[S]{Step: st.Step - 1, Status: StatusInProgress, Form: st.Form}, nil
}

// Cancel moves any in-progress state to the cancelled terminal. It always
// succeeds from a non-terminal step.
func (m *Machine[S]) Cancel(st State[S]) (State[S], error) {
	if st.Terminal() {
		return st, appErrors.Clone(appErrors.ErrInvalidTransition, "wizard already finished")
	}
	return State[S]{Step: st.Step, Status: StatusCancelled, Form: st.Form}, nil
}

// Decline moves to the declined side terminal. Only legal from the first
// step of flows built with WithDecline.
func (m *Machine[S]) Decline(st State[S]) (State[S], error) {
	if !m.allowDecline {
		return st, appErrors.Clone(appErrors.ErrInvalidTransition, "flow does not support decline")
	}
	if st.Terminal() {
		return st, appErrors.Clone(appErrors.ErrInvalidTransition, "wizard already finished")
	}
	if st.Step != 1 {
		return st, appErrors.Clone(appErrors.ErrInvalidTransition, "decline only allowed on first step")
	}
	return State[S]{Step: st.Step, Status: StatusDeclined, Form: st.Form}, nil
}

// Finalize returns the accumulated form as the finalized payload. Only a
// submitted state can be finalized. The status alone proves nothing when
// states arrive from outside the process, so callers accepting externally
// supplied states must re-run every step's validation on the returned form
// before acting on it.
func (m *Machine[S]) Finalize(st State[S]) (S, error) {
	if st.Status != StatusSubmitted {
		var zero S
		return zero, appErrors.Clone(appErrors.ErrInvalidTransition, "wizard not submitted")
	}
	return st.Form, nil
}
