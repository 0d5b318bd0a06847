package views

// sequencer numbers requests so that only the newest one issued may update
// a view; responses to superseded requests are dropped on arrival.
type sequencer struct {
	issued  uint64
	settled uint64
}

func (s *sequencer) next() uint64 {
	s.issued++
	return s.issued
}

// settle accepts seq only if it is the newest issued request.
func (s *sequencer) settle(seq uint64) bool {
	if seq != s.issued {
		return false
	}
	s.settled = seq
	return true
}

func (s *sequencer) pending() bool {
	return s.settled != s.issued
}
