package models

// Event is a single Q&A session, gated by a per-event secret. The field
// names below are the persisted schema and must stay stable across store
// backends.
type Event struct {
	ID     string `dynamodbav:"id"`
	Secret string `dynamodbav:"secret"`
	When   int64  `dynamodbav:"when"`
	Expire int64  `dynamodbav:"expire"`
}
