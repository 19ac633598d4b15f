package approval

import "sync"

// Tally holds named in-process counters bumped by Increment actions.
type Tally struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Add increases counter name by n and returns the new value.
func (t *Tally) Add(name string, n int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[name] += n
	return t.counts[name]
}

func (t *Tally) Value(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[name]
}
