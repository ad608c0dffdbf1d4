package recommend

import "sync/atomic"

// Sequencer hands out increasing tickets for one view. A response may only be
// shown while its ticket is still the newest.
type Sequencer struct {
	n atomic.Uint64
}

func (s *Sequencer) Next() uint64 { return s.n.Add(1) }

func (s *Sequencer) IsCurrent(ticket uint64) bool { return s.n.Load() == ticket }
