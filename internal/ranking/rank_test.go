package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveq-app/backend/internal/models"
)

// idAt builds a v7-shaped identifier whose embedded timestamp is tm, with
// seq keeping ids distinct.
func idAt(tm time.Time, seq byte) string {
	var u uuid.UUID
	ms := uint64(tm.UnixMilli())
	u[0] = byte(ms >> 40)
	u[1] = byte(ms >> 32)
	u[2] = byte(ms >> 24)
	u[3] = byte(ms >> 16)
	u[4] = byte(ms >> 8)
	u[5] = byte(ms)
	u[6] = 0x70
	u[8] = 0x80
	u[15] = seq
	return u.String()
}

func pending(id string, votes int) models.Question {
	return models.Question{ID: id, Votes: votes}
}

func answered(id string, votes int) models.Question {
	when := time.Now().Unix()
	return models.Question{ID: id, Votes: votes, Answered: &when}
}

func hidden(id string, votes int) models.Question {
	return models.Question{ID: id, Votes: votes, Hidden: true}
}

func qids(qs []models.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestRankPendingBeatsAnsweredRegardlessOfVotes(t *testing.T) {
	now := time.Now()
	lowPending := pending(idAt(now, 1), 1)
	popularAnswered := answered(idAt(now, 2), 100)

	got := Rank([]models.Question{popularAnswered, lowPending}, true, DefaultTopN, now)
	require.Len(t, got, 2)
	assert.Equal(t, lowPending.ID, got[0].ID)
	assert.Equal(t, popularAnswered.ID, got[1].ID)
}

func TestRankHiddenDroppedForGuests(t *testing.T) {
	now := time.Now()
	visible := pending(idAt(now, 1), 1)
	secret := hidden(idAt(now, 2), 5)

	guest := Rank([]models.Question{visible, secret}, false, DefaultTopN, now)
	assert.Equal(t, []string{visible.ID}, qids(guest))

	host := Rank([]models.Question{visible, secret}, true, DefaultTopN, now)
	assert.ElementsMatch(t, []string{visible.ID, secret.ID}, qids(host))
}

// answered and hidden are not tiered against each other; votes decide.
func TestRankAnsweredVersusHiddenFallsBackToVotes(t *testing.T) {
	now := time.Now()
	a := answered(idAt(now, 1), 100)
	h := hidden(idAt(now, 2), 1)

	got := Rank([]models.Question{h, a}, true, DefaultTopN, now)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, h.ID, got[1].ID)
}

func TestRankWholeListingIsVotesDescendingAtEqualAge(t *testing.T) {
	now := time.Now()
	// same creation instant, so the hotness remainder reduces to votes
	perm := []int{12, 3, 25, 7, 19, 1, 24, 8, 16, 2, 21, 10, 5, 23, 14, 4,
		18, 9, 22, 6, 13, 20, 11, 17, 15}
	qs := make([]models.Question, 0, len(perm))
	for i, v := range perm {
		qs = append(qs, pending(idAt(now, byte(i+1)), v))
	}

	got := Rank(qs, false, DefaultTopN, now)
	require.Len(t, got, len(perm))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Votes, got[i].Votes,
			"position %d out of order", i)
	}
	assert.Equal(t, 25, got[0].Votes)
	assert.Equal(t, 1, got[len(got)-1].Votes)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	now := time.Now()
	qs := []models.Question{pending(idAt(now, 1), 1), hidden(idAt(now, 2), 9)}
	_ = Rank(qs, false, DefaultTopN, now)
	assert.Equal(t, 1, qs[0].Votes)
	assert.True(t, qs[1].Hidden)
}

func TestHotnessNewerOutranksOlderAtEqualVotes(t *testing.T) {
	now := time.Now()
	old := pending(idAt(now.Add(-2*time.Hour), 1), 3)
	fresh := pending(idAt(now.Add(-1*time.Minute), 2), 3)
	assert.Greater(t, hotness(&fresh, now), hotness(&old, now))
}

func TestHotnessMoreVotesOutranksFewerAtEqualAge(t *testing.T) {
	now := time.Now()
	created := now.Add(-30 * time.Minute)
	low := pending(idAt(created, 1), 2)
	high := pending(idAt(created, 2), 9)
	assert.Greater(t, hotness(&high, now), hotness(&low, now))
}

func TestHotnessGuards(t *testing.T) {
	now := time.Now()

	// a brand-new question must not blow up ln or the denominator
	q := pending(idAt(now, 1), 1)
	s := hotness(&q, now)
	assert.False(t, math.IsNaN(s))
	assert.False(t, math.IsInf(s, 0))

	// zero votes count as one
	zero := pending(idAt(now, 2), 0)
	one := pending(idAt(now, 3), 1)
	assert.Equal(t, hotness(&one, now), hotness(&zero, now))

	// an id from the future clamps to zero age rather than going negative
	future := pending(idAt(now.Add(time.Hour), 4), 1)
	s = hotness(&future, now)
	assert.False(t, math.IsNaN(s))
	assert.Greater(t, s, 0.0)
}

func TestHotterTreatsNaNAsMinimum(t *testing.T) {
	nan := math.NaN()
	assert.False(t, hotter(nan, 1.0))
	assert.True(t, hotter(1.0, nan))
	assert.False(t, hotter(nan, nan))
}
