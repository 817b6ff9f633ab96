// Package ranking decides, for a given viewer, which of an event's questions
// to show and in what order. It operates on a point-in-time snapshot, never
// mutates records and never performs I/O.
package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/liveq-app/backend/internal/models"
	"github.com/liveq-app/backend/pkg/ident"
)

// DefaultTopN is how many questions get exact tier-and-votes placement at
// the head of a listing before hotness ordering takes over.
const DefaultTopN = 20

// Rank filters and orders a snapshot of questions for a viewer.
//
// Viewers without the event secret never see hidden questions. The first
// min(topN, n) results are the exact highest-ranked questions by the tier
// comparator below; everything after that is ordered by a time-decayed
// hotness score, so old high-vote questions sink while fresh ones surface.
func Rank(qs []models.Question, viewerHasSecret bool, topN int, now time.Time) []models.Question {
	out := make([]models.Question, 0, len(qs))
	for _, q := range qs {
		if q.Hidden && !viewerHasSecret {
			continue
		}
		out = append(out, q)
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	topNSort(out, topN, compare)
	if len(out) > topN {
		sortByHotness(out[topN:], now)
	}
	return out
}

// compare ranks a above b (positive result) when a is pending-visible and b
// is not; otherwise it falls back to vote count. Answered and hidden
// questions are deliberately not ordered relative to each other beyond
// their votes.
func compare(a, b *models.Question) int {
	ap, bp := a.VisiblePending(), b.VisiblePending()
	switch {
	case ap && !bp:
		return 1
	case bp && !ap:
		return -1
	}
	return a.Votes - b.Votes
}

// sortByHotness orders questions by decayed score, highest first, stable on
// ties. Scores are computed once up front.
func sortByHotness(qs []models.Question, now time.Time) {
	type scored struct {
		q     models.Question
		score float64
	}
	ss := make([]scored, len(qs))
	for i := range qs {
		ss[i] = scored{q: qs[i], score: hotness(&qs[i], now)}
	}
	sort.SliceStable(ss, func(i, j int) bool { return hotter(ss[i].score, ss[j].score) })
	for i := range ss {
		qs[i] = ss[i].q
	}
}

// hotter reports whether score a outranks b, treating NaN as the minimum so
// a malformed score can never float to the top.
func hotter(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}

// hotness is a decayed popularity score
// (https://www.evanmiller.org/ranking-news-items-with-upvotes.html).
//
// Age is counted in whole minutes so rankings don't reshuffle between
// polls, and measured from the creation time embedded in the question id.
// The +2 keeps dt above 1, so ln(dt) stays positive and the 1-decay
// denominator never reaches zero for brand-new questions. The log on age
// means a Q&A question is penalized ever more gently as it ages; this is
// not minute-to-minute news ranking.
func hotness(q *models.Question, now time.Time) float64 {
	var age time.Duration
	if id, err := ident.Parse(q.ID); err == nil {
		if created := ident.CreatedAt(id); now.After(created) {
			age = now.Sub(created)
		}
	}
	dt := float64(int64(age.Seconds())/60 + 2)
	decay := math.Exp(-math.Log(dt))
	votes := math.Max(float64(q.Votes), 1)
	return decay * votes / (1 - decay)
}
