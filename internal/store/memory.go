package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/liveq-app/backend/internal/models"
)

// Memory is the in-process Store used for development and tests. A single
// mutex serializes every operation across all events; critical sections are
// pure data-structure work, never I/O. This is a stand-in, not a concurrency
// model to preserve under load.
type Memory struct {
	mu             sync.Mutex
	events         map[string]models.Event
	questions      map[string]*models.Question
	questionsByEID map[string][]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		events:         make(map[string]models.Event),
		questions:      make(map[string]*models.Question),
		questionsByEID: make(map[string][]string),
	}
}

// CreateEvent upserts the event; overwriting an existing id is accepted.
func (m *Memory) CreateEvent(_ context.Context, eid, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.events[eid] = models.Event{
		ID:     eid,
		Secret: secret,
		When:   now.Unix(),
		Expire: now.Add(EventTTL).Unix(),
	}
	if _, ok := m.questionsByEID[eid]; !ok {
		m.questionsByEID[eid] = nil
	}
	return nil
}

// CreateQuestion inserts a question. Unlike the DynamoDB backend, creation
// against an unknown event is rejected here.
func (m *Memory) CreateQuestion(_ context.Context, eid, qid, text string, asker *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[eid]; !ok {
		return fmt.Errorf("create question for event %s: %w", eid, ErrEventNotFound)
	}
	now := time.Now()
	m.questions[qid] = &models.Question{
		ID:      qid,
		EventID: eid,
		Votes:   1,
		Text:    text,
		Who:     asker,
		When:    now.Unix(),
		Expire:  now.Add(QuestionTTL).Unix(),
		Hidden:  false,
	}
	m.questionsByEID[eid] = append(m.questionsByEID[eid], qid)
	return nil
}

// Vote adjusts the count. The check-and-decrement for the zero floor happens
// inside the critical section, mirroring the conditional update the remote
// backend uses.
func (m *Memory) Vote(_ context.Context, qid string, dir Direction) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.questions[qid]
	if !ok {
		return 0, fmt.Errorf("vote for question %s: %w", qid, ErrQuestionNotFound)
	}
	switch dir {
	case Up:
		q.Votes++
	case Down:
		if q.Votes > 0 {
			q.Votes--
		}
	}
	return q.Votes, nil
}

// Toggle applies a hidden/answered change.
func (m *Memory) Toggle(_ context.Context, qid string, t Toggle) (ToggleResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.questions[qid]
	if !ok {
		return ToggleResult{}, fmt.Errorf("toggle on question %s: %w", qid, ErrQuestionNotFound)
	}
	switch t.Property {
	case Hidden:
		q.Hidden = t.On
		set := t.On
		return ToggleResult{Hidden: &set}, nil
	case Answered:
		if !t.On {
			q.Answered = nil
			return ToggleResult{}, nil
		}
		now := time.Now().Unix()
		q.Answered = &now
		return ToggleResult{Answered: &now}, nil
	}
	return ToggleResult{}, fmt.Errorf("unknown toggle property %q", t.Property)
}

// GetQuestion returns the question's text.
func (m *Memory) GetQuestion(_ context.Context, qid string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.questions[qid]
	if !ok {
		return "", fmt.Errorf("get question %s: %w", qid, ErrQuestionNotFound)
	}
	return q.Text, nil
}

// GetEvent reports whether the event exists.
func (m *Memory) GetEvent(_ context.Context, eid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[eid]; !ok {
		return fmt.Errorf("get event %s: %w", eid, ErrEventNotFound)
	}
	return nil
}

// ListQuestions returns the event's questions ordered by descending votes.
func (m *Memory) ListQuestions(_ context.Context, eid string, includeHidden bool) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[eid]; !ok {
		return nil, fmt.Errorf("list questions for event %s: %w", eid, ErrEventNotFound)
	}
	qids := m.questionsByEID[eid]
	out := make([]models.Question, 0, len(qids))
	for _, qid := range qids {
		q := m.questions[qid]
		if q.Hidden && !includeHidden {
			continue
		}
		out = append(out, *q)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Votes > out[j].Votes })
	return out, nil
}

// BatchGetQuestions returns (id, text, when, who) projections for the ids
// that exist; unknown ids are omitted. The in-memory store never leaves keys
// unprocessed.
func (m *Memory) BatchGetQuestions(_ context.Context, qids []string) (*BatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := &BatchResult{}
	for _, qid := range qids {
		q, ok := m.questions[qid]
		if !ok {
			continue
		}
		res.Found = append(res.Found, models.Question{
			ID:   q.ID,
			Text: q.Text,
			When: q.When,
			Who:  q.Who,
		})
	}
	return res, nil
}

// GetSecret returns the event's host secret.
func (m *Memory) GetSecret(_ context.Context, eid string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[eid]
	if !ok {
		return "", fmt.Errorf("get secret for event %s: %w", eid, ErrEventNotFound)
	}
	return ev.Secret, nil
}

// DeleteEvent removes the event and its questions.
func (m *Memory) DeleteEvent(_ context.Context, eid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[eid]; !ok {
		return fmt.Errorf("delete event %s: %w", eid, ErrEventNotFound)
	}
	for _, qid := range m.questionsByEID[eid] {
		delete(m.questions, qid)
	}
	delete(m.questionsByEID, eid)
	delete(m.events, eid)
	return nil
}
