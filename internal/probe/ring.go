package probe

import "github.com/rzbill/causeway/internal/wire"

// ring is a fixed-capacity log of wire entries in strict chronological
// order. When full, a push evicts the oldest entry and latches the overflow
// flag; the flag travels with the next report and is cleared when the report
// drains the log.
type ring struct {
	entries    []wire.Entry
	start      int
	size       int
	overflowed bool
}

func newRing(capacity int) ring {
	return ring{entries: make([]wire.Entry, capacity)}
}

func (r *ring) push(e wire.Entry) {
	if r.size == len(r.entries) {
		// overwrite the oldest entry
		r.entries[r.start] = e
		r.start = (r.start + 1) % len(r.entries)
		r.overflowed = true
		return
	}
	r.entries[(r.start+r.size)%len(r.entries)] = e
	r.size++
}

func (r *ring) at(i int) wire.Entry {
	return r.entries[(r.start+i)%len(r.entries)]
}

func (r *ring) len() int { return r.size }

// drain clears the log and the overflow flag after a successful report.
func (r *ring) drain() {
	r.start = 0
	r.size = 0
	r.overflowed = false
}
