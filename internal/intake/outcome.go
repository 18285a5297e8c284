package intake

import (
	"errors"

	"github.com/pulseward/pulseward/internal/models"
)

// Sentinel errors for the intake engine.
var (
	// ErrAlreadyActive means a live session exists for the slot and the
	// caller did not request a restart.
	ErrAlreadyActive = errors.New("intake: session already active")
	// ErrNoSession means the participant has no live session to answer.
	ErrNoSession = errors.New("intake: no active session")
	// ErrUnknownFlow means the questionnaire type is not registered.
	ErrUnknownFlow = errors.New("intake: unknown questionnaire type")
	// ErrArityMismatch means a finalized batch had the wrong part count.
	ErrArityMismatch = errors.New("intake: batch arity mismatch")
	// ErrUnknownBatch means a part arrived for a batch id that was already
	// finalized or never seen with an open media step.
	ErrUnknownBatch = errors.New("intake: unknown or expired batch")
)

// OutcomeKind classifies what the engine did with an inbound answer.
type OutcomeKind int

const (
	// OutcomeReprompt: input rejected, session unchanged, Message explains.
	OutcomeReprompt OutcomeKind = iota
	// OutcomeAdvance: input accepted, Message is the next step's prompt.
	OutcomeAdvance
	// OutcomeCompleted: flow finished, Submission persisted.
	OutcomeCompleted
	// OutcomeBuffered: a batch part was accepted and is waiting for the
	// debounce window; no reply is owed yet.
	OutcomeBuffered
)

// Outcome is the engine's answer to one inbound message or finalized batch.
type Outcome struct {
	Kind       OutcomeKind
	Message    string
	Options    []string // keyboard hint for the next prompt
	Submission *models.Submission // set when Kind == OutcomeCompleted
}

// String returns the outcome kind name, for logs.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReprompt:
		return "reprompt"
	case OutcomeAdvance:
		return "advance"
	case OutcomeCompleted:
		return "completed"
	case OutcomeBuffered:
		return "buffered"
	}
	return "unknown"
}
