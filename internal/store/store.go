// Package store implements the record store behind the Q&A session API.
//
// Two backends provide the same capability set: Dynamo delegates durability
// and per-operation atomicity to DynamoDB's conditional updates, Memory keeps
// everything behind a single mutex for development and tests. Handlers depend
// only on the Store interface and the sentinel conditions below; the two
// backends must be indistinguishable through that surface.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/liveq-app/backend/internal/models"
)

// Conditions handlers translate into 404s. Anything else coming out of a
// Store is a storage failure (500); a failed vote-down condition is neither,
// it resolves to the floor-at-zero success path.
var (
	ErrEventNotFound    = errors.New("event does not exist")
	ErrQuestionNotFound = errors.New("question does not exist")
)

// Records carry their expiry in the expire attribute; DynamoDB's TTL sweeper
// does the actual deletion, the in-memory store simply never expires.
const (
	EventTTL    = 60 * 24 * time.Hour
	QuestionTTL = 30 * 24 * time.Hour
)

// Direction is a vote direction.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection maps a request path segment onto a vote direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return Up, true
	case "down":
		return Down, true
	}
	return "", false
}

// Property is a toggleable question flag.
type Property string

const (
	Hidden   Property = "hidden"
	Answered Property = "answered"
)

// ParseProperty maps a request path segment onto a question flag.
func ParseProperty(s string) (Property, bool) {
	switch s {
	case "hidden":
		return Hidden, true
	case "answered":
		return Answered, true
	}
	return "", false
}

// Toggle describes a flag change. For Hidden the flag is set to On as given;
// for Answered, On records the current time and !On clears the mark.
type Toggle struct {
	Property Property
	On       bool
}

// ToggleResult reports the value that was applied. Exactly one field is set
// for Hidden and for Answered-on; both are nil when an answered mark was
// cleared.
type ToggleResult struct {
	Hidden   *bool
	Answered *int64
}

// BatchResult is the outcome of a bulk projection fetch that tolerates
// partial results. Ids the backend did not get to end up in Unprocessed and
// can be retried by the caller; ids that simply don't exist are omitted.
type BatchResult struct {
	Found       []models.Question
	Unprocessed []string
}

// Store is the capability set both backends implement.
type Store interface {
	// CreateEvent upserts an event record with its secret.
	CreateEvent(ctx context.Context, eid, secret string) error

	// CreateQuestion inserts a question with a single self-vote, visible
	// and unanswered.
	CreateQuestion(ctx context.Context, eid, qid, text string, asker *string) error

	// Vote adjusts the vote count and returns the new value. Up always
	// increments; Down decrements only while the count is positive, and a
	// down-vote at zero reports success with zero votes. Atomic under
	// concurrent callers.
	Vote(ctx context.Context, qid string, dir Direction) (int, error)

	// Toggle applies a hidden/answered change and returns the applied value.
	Toggle(ctx context.Context, qid string, t Toggle) (ToggleResult, error)

	// GetQuestion fetches only the question's text.
	GetQuestion(ctx context.Context, qid string) (string, error)

	// GetEvent reports whether the event exists.
	GetEvent(ctx context.Context, eid string) error

	// ListQuestions returns an event's questions, all of them or only the
	// non-hidden ones. Results come back pre-ordered by descending vote
	// count where the backend can do that natively; the ranking engine
	// re-derives the final order regardless, so the pre-order is an
	// optimization, not a contract.
	ListQuestions(ctx context.Context, eid string, includeHidden bool) ([]models.Question, error)

	// BatchGetQuestions bulk-fetches (id, text, when, who) projections.
	BatchGetQuestions(ctx context.Context, qids []string) (*BatchResult, error)

	// GetSecret returns the event's host secret.
	GetSecret(ctx context.Context, eid string) (string, error)

	// DeleteEvent removes an event and all its questions. Records normally
	// only disappear through expiry; this exists for test teardown.
	DeleteEvent(ctx context.Context, eid string) error
}
