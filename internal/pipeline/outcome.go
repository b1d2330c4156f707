package pipeline

import (
	"time"

	"subflow/internal/faults"
)

// OutcomeKind discriminates the variants of Outcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeFailure
	OutcomePartial
	OutcomeSkipped
)

// Outcome is the terminal result of one stage execution. Exactly one
// variant is active; Failure and Skipped carry no usable value.
type Outcome[T any] struct {
	Kind              OutcomeKind
	Value             T
	Duration          time.Duration
	Err               *faults.Error
	Attempt           int
	CompletedFraction float64
	Reason            string
}

// Success builds a successful outcome.
func Success[T any](value T, duration time.Duration) Outcome[T] {
	return Outcome[T]{Kind: OutcomeSuccess, Value: value, Duration: duration}
}

// Failure builds a failed outcome after the given attempt count.
func Failure[T any](err *faults.Error, attempt int) Outcome[T] {
	return Outcome[T]{Kind: OutcomeFailure, Err: err, Attempt: attempt}
}

// Partial builds an outcome for work that produced a usable value before
// failing. The orchestrator's stages are all-or-nothing, so this variant
// is constructed by collaborator adapters that can salvage partial
// results, not by the stage loop itself.
func Partial[T any](value T, fraction float64, err *faults.Error) Outcome[T] {
	return Outcome[T]{Kind: OutcomePartial, Value: value, CompletedFraction: fraction, Err: err}
}

// Skipped builds an outcome for a stage that was not run.
func Skipped[T any](reason string) Outcome[T] {
	return Outcome[T]{Kind: OutcomeSkipped, Reason: reason}
}

// Ok reports whether the outcome carries a usable value.
func (o Outcome[T]) Ok() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomePartial
}
