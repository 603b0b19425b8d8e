package neighbor

import "github.com/viant/sqlite-knn/classifier"

// Set keeps the k smallest candidates offered so far.
//
// While fewer than k candidates are held every offer is appended. Once full,
// an offer replaces the candidate at the first position holding the current
// maximum distance, and only when its distance is strictly smaller; equal
// distances never evict, so the first-seen candidate wins.
//
// A Set is reused across queries by one goroutine; it is not safe for
// concurrent use.
type Set[L comparable] struct {
	k      int
	items  []classifier.Neighbor[L]
	worst  int
	labels []L
	counts []int
}

// NewSet returns an empty Set bounded by k; k must be positive.
func NewSet[L comparable](k int) *Set[L] {
	return &Set[L]{
		k:      k,
		items:  make([]classifier.Neighbor[L], 0, k),
		labels: make([]L, 0, k),
		counts: make([]int, 0, k),
	}
}

// Reset empties the set for the next query.
func (s *Set[L]) Reset() {
	s.items = s.items[:0]
	s.worst = 0
}

// Len returns the number of held candidates.
func (s *Set[L]) Len() int { return len(s.items) }

// Offer considers one training row at the given distance.
func (s *Set[L]) Offer(distance float64, label L) {
	if len(s.items) < s.k {
		s.items = append(s.items, classifier.Neighbor[L]{Distance: distance, Label: label})
		if len(s.items) == s.k {
			s.worst = s.argmax()
		}
		return
	}
	if distance < s.items[s.worst].Distance {
		s.items[s.worst] = classifier.Neighbor[L]{Distance: distance, Label: label}
		s.worst = s.argmax()
	}
}

// argmax returns the first position holding the maximum distance.
func (s *Set[L]) argmax() int {
	w := 0
	for i := 1; i < len(s.items); i++ {
		if s.items[i].Distance > s.items[w].Distance {
			w = i
		}
	}
	return w
}

// Candidates returns a copy of the held candidates in storage order.
func (s *Set[L]) Candidates() []classifier.Neighbor[L] {
	return append([]classifier.Neighbor[L](nil), s.items...)
}

// Vote returns the most frequent label among the held candidates. Equal
// counts go to the label whose first occurrence comes earliest in storage
// order. The zero label is returned for an empty set.
func (s *Set[L]) Vote() L {
	s.labels = s.labels[:0]
	s.counts = s.counts[:0]
	for _, c := range s.items {
		found := false
		for i, l := range s.labels {
			if l == c.Label {
				s.counts[i]++
				found = true
				break
			}
		}
		if !found {
			s.labels = append(s.labels, c.Label)
			s.counts = append(s.counts, 1)
		}
	}
	var zero L
	if len(s.labels) == 0 {
		return zero
	}
	best := 0
	for i := 1; i < len(s.counts); i++ {
		if s.counts[i] > s.counts[best] {
			best = i
		}
	}
	return s.labels[best]
}
