package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveq-app/backend/pkg/ident"
)

func TestMemoryRejectsQuestionForUnknownEvent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	err := m.CreateQuestion(ctx, ident.New().String(), ident.New().String(), "hello world", nil)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestMemoryNotFoundConditions(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	missing := ident.New().String()

	assert.ErrorIs(t, m.GetEvent(ctx, missing), ErrEventNotFound)

	_, err := m.GetSecret(ctx, missing)
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = m.ListQuestions(ctx, missing, true)
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = m.GetQuestion(ctx, missing)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	_, err = m.Vote(ctx, missing, Up)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	_, err = m.Toggle(ctx, missing, Toggle{Property: Hidden, On: true})
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	assert.ErrorIs(t, m.DeleteEvent(ctx, missing), ErrEventNotFound)
}

func TestMemoryBatchGetNeverLeavesUnprocessed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	eid := ident.New().String()
	require.NoError(t, m.CreateEvent(ctx, eid, ident.NewSecret()))
	qid := ident.New().String()
	require.NoError(t, m.CreateQuestion(ctx, eid, qid, "hello world", nil))

	res, err := m.BatchGetQuestions(ctx, []string{qid, ident.New().String()})
	require.NoError(t, err)
	assert.Len(t, res.Found, 1)
	assert.Empty(t, res.Unprocessed)
}

func TestMemoryDeleteEventCascades(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	eid := ident.New().String()
	require.NoError(t, m.CreateEvent(ctx, eid, ident.NewSecret()))
	qid := ident.New().String()
	require.NoError(t, m.CreateQuestion(ctx, eid, qid, "hello world", nil))

	require.NoError(t, m.DeleteEvent(ctx, eid))
	assert.ErrorIs(t, m.GetEvent(ctx, eid), ErrEventNotFound)
	_, err := m.GetQuestion(ctx, qid)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

// Concurrent voters on one question must never lose an increment or push
// the count below zero.
func TestMemoryConcurrentVotes(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	eid := ident.New().String()
	require.NoError(t, m.CreateEvent(ctx, eid, ident.NewSecret()))
	qid := ident.New().String()
	require.NoError(t, m.CreateQuestion(ctx, eid, qid, "hello world", nil))

	const voters = 50
	var wg sync.WaitGroup
	wg.Add(2 * voters)
	for i := 0; i < voters; i++ {
		go func() {
			defer wg.Done()
			_, _ = m.Vote(ctx, qid, Up)
		}()
		go func() {
			defer wg.Done()
			_, _ = m.Vote(ctx, qid, Down)
		}()
	}
	wg.Wait()

	qs, err := m.ListQuestions(ctx, eid, true)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.GreaterOrEqual(t, qs[0].Votes, 0)
}
