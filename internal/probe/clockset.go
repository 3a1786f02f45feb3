package probe

import "errors"

// ErrCapacityExceeded indicates a fixed-size table would overflow. Not
// recoverable by retrying the same call; reinitialize with more capacity.
var ErrCapacityExceeded = errors.New("probe: capacity exceeded")

// LogicalClock is one entry of a clock set: what some probe has observed
// about ProbeID's coarse logical time.
type LogicalClock struct {
	ProbeID ProbeID
	Count   uint32
}

// ClockSet maps probe ids to monotonically non-decreasing counts. The
// backing array is sized once at construction; entry 0 is always the owning
// probe's clock.
type ClockSet struct {
	clocks []LogicalClock
	cap    int
}

func newClockSet(self ProbeID, maxClocks int) ClockSet {
	backing := make([]LogicalClock, 1, maxClocks)
	backing[0] = LogicalClock{ProbeID: self}
	return ClockSet{clocks: backing, cap: maxClocks}
}

// Self returns the owning probe's clock entry.
func (c *ClockSet) Self() LogicalClock { return c.clocks[0] }

// Len returns the number of tracked probes, self included.
func (c *ClockSet) Len() int { return len(c.clocks) }

// Capacity returns the maximum number of tracked probes.
func (c *ClockSet) Capacity() int { return c.cap }

// Get returns the tracked count for id.
func (c *ClockSet) Get(id ProbeID) (uint32, bool) {
	for i := range c.clocks {
		if c.clocks[i].ProbeID == id {
			return c.clocks[i].Count, true
		}
	}
	return 0, false
}

// IncrementSelf advances the owning probe's count by one and returns the new
// count. Self always has an entry, so this cannot overflow the table.
func (c *ClockSet) IncrementSelf() uint32 {
	c.clocks[0].Count++
	return c.clocks[0].Count
}

// Merge folds one foreign clock into the set: max(current, foreign), never
// decreasing. Stale or duplicate observations are discarded silently, which
// makes Merge idempotent. Returns whether the tracked count increased, and
// ErrCapacityExceeded when foreign names a never-seen probe and the table is
// full.
func (c *ClockSet) Merge(foreign LogicalClock) (bool, error) {
	for i := range c.clocks {
		if c.clocks[i].ProbeID == foreign.ProbeID {
			if foreign.Count > c.clocks[i].Count {
				c.clocks[i].Count = foreign.Count
				return true, nil
			}
			return false, nil
		}
	}
	if len(c.clocks) == c.cap {
		return false, ErrCapacityExceeded
	}
	c.clocks = append(c.clocks, foreign)
	return true, nil
}

// admits reports whether n additional never-seen probes would fit.
func (c *ClockSet) admits(n int) bool { return len(c.clocks)+n <= c.cap }

// Snapshot appends every entry, self included, to dst and returns the
// result. Order is unspecified and need not be stable across calls.
func (c *ClockSet) Snapshot(dst []LogicalClock) []LogicalClock {
	return append(dst, c.clocks...)
}
