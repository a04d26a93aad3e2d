package pipeline

// sequencer issues the strictly increasing generation ids that tag every
// evaluation and delivery cycle. Exactly one generation is current at a
// time; work stamped with an older id is abandoned at the next delivery
// checkpoint. All methods must be called under the coordinator lock.
type sequencer struct {
	gen uint64
}

// next issues a new generation and makes it current.
func (s *sequencer) next() uint64 {
	s.gen++
	return s.gen
}

// current returns the most recently issued generation.
func (s *sequencer) current() uint64 {
	return s.gen
}

// isCurrent reports whether gen is still the current generation.
func (s *sequencer) isCurrent(gen uint64) bool {
	return s.gen == gen
}
