package recommend

import (
	"slices"
	"sync"
)

const HistorySize = 10

// History keeps the most recent search terms, oldest first.
type History struct {
	mu    sync.Mutex
	terms []string
}

func (h *History) Add(term string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.terms = append(h.terms, term)
	if over := len(h.terms) - HistorySize; over > 0 {
		h.terms = slices.Delete(h.terms, 0, over)
	}
}

func (h *History) Terms() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.terms)
}
