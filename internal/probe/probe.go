package probe

import (
	"errors"

	"github.com/rzbill/causeway/internal/wire"
)

const (
	// DefaultLogCapacity is the ring log size when Options.LogCapacity is 0.
	DefaultLogCapacity = 1024
	// DefaultMaxClocks is the clock table size when Options.MaxClocks is 0.
	DefaultMaxClocks = 32
	// MinLogCapacity is the smallest usable ring log.
	MinLogCapacity = 2
	// MinClocks is the smallest usable clock table: self plus one neighbor.
	MinClocks = 2
)

// ErrInsufficientBuffer indicates a caller-supplied buffer too small for the
// encoded output. Recoverable by retrying with a larger buffer; the probe's
// state is left unchanged.
var ErrInsufficientBuffer = errors.New("probe: insufficient buffer")

// Options configures a Probe. Capacities are fixed for the probe's lifetime.
type Options struct {
	// ID is this probe's unique identity. Required.
	ID ProbeID
	// LogCapacity bounds the event ring log. 0 means DefaultLogCapacity.
	LogCapacity int
	// MaxClocks bounds the number of tracked probes, self included.
	// 0 means DefaultMaxClocks.
	MaxClocks int
}

// Probe owns one clock set and one bounded event log. One exclusive owner
// per instance; no internal locking.
type Probe struct {
	id        ProbeID
	clocks    ClockSet
	log       ring
	reportSeq uint32
}

// New allocates a Probe with fixed-capacity storage. This is the only
// allocating call in the package.
func New(opts Options) (*Probe, error) {
	if _, err := NewProbeID(uint32(opts.ID)); err != nil {
		return nil, err
	}
	logCap := opts.LogCapacity
	if logCap == 0 {
		logCap = DefaultLogCapacity
	}
	maxClocks := opts.MaxClocks
	if maxClocks == 0 {
		maxClocks = DefaultMaxClocks
	}
	if logCap < MinLogCapacity || maxClocks < MinClocks {
		return nil, errors.New("probe: capacity under minimum")
	}
	return &Probe{
		id:     opts.ID,
		clocks: newClockSet(opts.ID, maxClocks),
		log:    newRing(logCap),
	}, nil
}

// ID returns this probe's identity.
func (p *Probe) ID() ProbeID { return p.id }

// SequenceNumber returns the sequence number of the last produced report,
// 0 before the first report.
func (p *Probe) SequenceNumber() uint32 { return p.reportSeq }

// Clocks appends the current clock set to dst. Test and debug aid.
func (p *Probe) Clocks(dst []LogicalClock) []LogicalClock { return p.clocks.Snapshot(dst) }

// RecordEvent appends an event to the log, evicting the oldest entry and
// latching the overflow flag when full. Never fails; O(1).
func (p *Probe) RecordEvent(id EventID) {
	p.log.push(wire.Event(uint32(id)))
}

// RecordEventWithPayload appends an event carrying a u32 payload. Never
// fails; O(1).
func (p *Probe) RecordEventWithPayload(id EventID, payload uint32) {
	p.log.push(wire.EventWithPayload(uint32(id), payload))
}

// DistributeSnapshot advances this probe's own clock, serializes the full
// clock set into buf, and logs a clock entry anchoring the snapshot in this
// probe's own timeline. Returns the number of bytes written.
//
// The size check runs before the clock increment, so an
// ErrInsufficientBuffer failure leaves the probe unchanged.
func (p *Probe) DistributeSnapshot(buf []byte) (int, error) {
	need := wire.EncodedSnapshotSize(p.clocks.Len())
	if len(buf) < need {
		return 0, ErrInsufficientBuffer
	}
	count := p.clocks.IncrementSelf()
	off, _ := wire.PutSnapshotHeader(buf, p.clocks.Len())
	for _, c := range p.clocks.clocks {
		off = wire.PutClockEntry(buf, off, wire.ClockEntry{ProbeID: uint32(c.ProbeID), Count: c.Count})
	}
	p.log.push(wire.Clock(uint32(p.id), count))
	return off, nil
}

// MergeSnapshot folds a foreign clock set into the local one and logs a
// clock entry for every foreign probe whose tracked count increased,
// recording the causal linkage at this exact point in the local log.
//
// The merge is atomic: the snapshot is validated and sized first, and when
// admitting its never-seen probes would exceed the clock table the call
// fails with ErrCapacityExceeded before any count changes. The rejection is
// recorded in-band as EventNumClocksOverflowed.
func (p *Probe) MergeSnapshot(b []byte) error {
	// Validation pass: reject malformed input and size the admission before
	// mutating anything.
	newProbes := 0
	err := wire.WalkSnapshot(b, func(c wire.ClockEntry) error {
		if c.ProbeID == 0 || c.ProbeID > MaxID {
			return wire.ErrMalformedSnapshot
		}
		if _, ok := p.clocks.Get(ProbeID(c.ProbeID)); !ok {
			newProbes++
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !p.clocks.admits(newProbes) {
		p.log.push(wire.Event(uint32(EventNumClocksOverflowed)))
		return ErrCapacityExceeded
	}
	return wire.WalkSnapshot(b, func(c wire.ClockEntry) error {
		increased, err := p.clocks.Merge(LogicalClock{ProbeID: ProbeID(c.ProbeID), Count: c.Count})
		if err != nil {
			return err
		}
		if increased && ProbeID(c.ProbeID) != p.id {
			p.log.push(wire.Clock(c.ProbeID, c.Count))
		}
		return nil
	})
}

// Report drains every log entry accumulated since the previous report into
// buf using the wire report format, tagged with the next sequence number and
// the overflow flag. Returns the number of bytes written.
//
// On ErrInsufficientBuffer the log is left undrained so the caller may retry
// with a larger buffer.
func (p *Probe) Report(buf []byte) (int, error) {
	n := p.log.len()
	need := wire.ReportHeaderLen
	for i := 0; i < n; i++ {
		need += wire.EntrySize(p.log.at(i))
	}
	if len(buf) < need {
		return 0, ErrInsufficientBuffer
	}
	seq := p.reportSeq + 1
	off, _ := wire.PutReportHeader(buf, uint32(p.id), seq, p.log.overflowed, n)
	for i := 0; i < n; i++ {
		off = wire.PutEntry(buf, off, p.log.at(i))
	}
	p.reportSeq = seq
	p.log.drain()
	return off, nil
}
