package probe

import (
	"errors"
	"testing"
)

func TestClockSetAlwaysContainsSelf(t *testing.T) {
	c := newClockSet(5, 4)
	snap := c.Snapshot(nil)
	if len(snap) != 1 || snap[0].ProbeID != 5 || snap[0].Count != 0 {
		t.Fatalf("fresh set must hold only self at 0, got %+v", snap)
	}
	if got := c.IncrementSelf(); got != 1 {
		t.Fatalf("want count 1, got %d", got)
	}
}

func TestClockSetMergeNeverDecreases(t *testing.T) {
	c := newClockSet(5, 4)
	if _, err := c.Merge(LogicalClock{ProbeID: 9, Count: 3}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	increased, err := c.Merge(LogicalClock{ProbeID: 9, Count: 1})
	if err != nil {
		t.Fatalf("stale merge: %v", err)
	}
	if increased {
		t.Fatalf("stale merge reported an increase")
	}
	if count, _ := c.Get(9); count != 3 {
		t.Fatalf("count regressed to %d", count)
	}
}

func TestClockSetCapacity(t *testing.T) {
	c := newClockSet(5, 2)
	if _, err := c.Merge(LogicalClock{ProbeID: 9, Count: 1}); err != nil {
		t.Fatalf("first neighbor should fit: %v", err)
	}
	if _, err := c.Merge(LogicalClock{ProbeID: 10, Count: 1}); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded, got %v", err)
	}
	// existing ids still merge fine at capacity
	if _, err := c.Merge(LogicalClock{ProbeID: 9, Count: 4}); err != nil {
		t.Fatalf("merge at capacity for known id: %v", err)
	}
}
