package testutil

import "sync"

// SequenceSource is a policy.RandomSource replaying fixed draws.
//
// Each IntN call returns the next value modulo n; the sequence wraps around.
// An empty sequence always yields 0.
type SequenceSource struct {
	mu    sync.Mutex
	seq   []int
	next  int
	asked []int
}

// NewSequenceSource creates a source replaying seq.
func NewSequenceSource(seq ...int) *SequenceSource {
	return &SequenceSource{seq: seq}
}

// IntN returns the next draw in [0, n).
func (s *SequenceSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.asked = append(s.asked, n)
	if len(s.seq) == 0 || n <= 0 {
		return 0
	}

	v := s.seq[s.next%len(s.seq)] % n
	s.next++

	return v
}

// Draws returns the n passed to every IntN call.
func (s *SequenceSource) Draws() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int, len(s.asked))
	copy(out, s.asked)

	return out
}
