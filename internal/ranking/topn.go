package ranking

import "sort"

// topNSort rearranges s so that its first min(top, len) elements are the
// largest per cmp, correctly ordered descending. Elements past that prefix
// are left wherever the pass deposited them; callers that care about their
// order sort them separately. Cheaper than a full sort when top is much
// smaller than len(s): each pass does one comparison against the prefix
// floor and, only for elements that beat it, a binary-search insertion into
// the bounded prefix.
func topNSort[T any](s []T, top int, cmp func(a, b *T) int) {
	for i := 1; i < len(s); i++ {
		high := top
		if i < high {
			high = i
		}
		if cmp(&s[high-1], &s[i]) > 0 {
			continue
		}
		key := s[i]
		pos := sort.Search(high, func(j int) bool { return cmp(&key, &s[j]) >= 0 })
		if pos == high {
			pos--
		}
		copy(s[pos+1:i+1], s[pos:i])
		s[pos] = key
	}
}
