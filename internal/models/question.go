// Package models holds the two persisted record kinds.
package models

// Question is a submission tied to an Event. Hidden and Answered are
// independent flags; a question can be any combination of the two.
// Timestamps are epoch seconds. Answered is nil while the question is
// pending; Expire is TTL metadata consumed by the storage layer.
type Question struct {
	ID       string  `dynamodbav:"id"`
	EventID  string  `dynamodbav:"eid"`
	Votes    int     `dynamodbav:"votes"`
	Text     string  `dynamodbav:"text"`
	Who      *string `dynamodbav:"who,omitempty"`
	When     int64   `dynamodbav:"when"`
	Expire   int64   `dynamodbav:"expire"`
	Hidden   bool    `dynamodbav:"hidden"`
	Answered *int64  `dynamodbav:"answered,omitempty"`
}

// VisiblePending reports whether the question is still in the main flow:
// not hidden and not yet answered.
func (q *Question) VisiblePending() bool {
	return !q.Hidden && q.Answered == nil
}
