package sync

// SeenSet tracks the sequence numbers observed for a channel during one
// catch-up episode. It is discarded when the channel returns to live
// mode; the watermark in the Record carries forward instead.
type SeenSet map[uint64]struct{}

// NewSeenSet returns an empty seen-set.
func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// Has reports whether seq was already observed in this episode.
func (s SeenSet) Has(seq uint64) bool {
	_, ok := s[seq]
	return ok
}

// Add marks seq as observed.
func (s SeenSet) Add(seq uint64) {
	s[seq] = struct{}{}
}

// Len returns the number of distinct sequences observed.
func (s SeenSet) Len() int {
	return len(s)
}
