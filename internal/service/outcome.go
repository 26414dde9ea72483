package service

import (
	apperrors "go-image-query/internal/errors"
)

// SubmissionState is the state a submission ended in, exposed to the
// presentation layer. A single submission walks
// Idle -> Validating -> (Invalid | InFlight -> (Succeeded | Failed)).
type SubmissionState string

const (
	StateIdle       SubmissionState = "idle"
	StateValidating SubmissionState = "validating"
	StateInvalid    SubmissionState = "invalid"
	StateInFlight   SubmissionState = "in_flight"
	StateSucceeded  SubmissionState = "succeeded"
	StateFailed     SubmissionState = "failed"
)

// Failure is the user-facing rendering of a classified error. The message
// always embeds the original failure's message text.
type Failure struct {
	Kind    apperrors.ErrorType `json:"kind"`
	Message string              `json:"message"`
}

// Outcome is the result of one submission. Exactly one of AnswerText and
// Failure is populated. Transient; held only for rendering.
type Outcome struct {
	State      SubmissionState `json:"state"`
	AnswerText string          `json:"answer_text,omitempty"`
	Failure    *Failure        `json:"failure,omitempty"`

	cause *apperrors.AppError
}

// Err returns the classified error behind a failed outcome, nil otherwise.
func (o *Outcome) Err() *apperrors.AppError {
	if o == nil || o.cause == nil {
		return nil
	}
	return o.cause
}

func succeededOutcome(answer string) *Outcome {
	return &Outcome{State: StateSucceeded, AnswerText: answer}
}

// FailureOutcome builds the outcome for a classified error. Exposed so
// collaborating layers can render failures the same way the orchestrator does.
func FailureOutcome(state SubmissionState, err *apperrors.AppError) *Outcome {
	return &Outcome{
		State: state,
		Failure: &Failure{
			Kind:    err.Type,
			Message: "analysis failed: " + err.Message,
		},
		cause: err,
	}
}

func failedOutcome(state SubmissionState, err *apperrors.AppError) *Outcome {
	return FailureOutcome(state, err)
}
