package probe

import "errors"

// MaxID is the largest valid raw value for both probe and event ids.
const MaxID = 1<<31 - 2

// numReservedEventIDs is the size of the band at the top of the event id
// range reserved for probe-internal events.
const numReservedEventIDs = 256

// MaxUserEventID is the largest event id available to applications.
const MaxUserEventID = MaxID - numReservedEventIDs

var (
	// ErrInvalidProbeID indicates a probe id outside [1, MaxID].
	ErrInvalidProbeID = errors.New("probe: probe id out of range")
	// ErrInvalidEventID indicates an event id outside [1, MaxUserEventID].
	ErrInvalidEventID = errors.New("probe: event id out of range")
)

// ProbeID identifies one traced execution context. The zero value is invalid.
type ProbeID uint32

// EventID identifies an event or kind of event. The zero value is invalid.
type EventID uint32

// Internal events recorded by the probe itself so degradation is visible
// in-band at the collector.
const (
	// EventLogOverflowed is recorded context when the ring log dropped
	// entries since the last report.
	EventLogOverflowed EventID = MaxID
	// EventNumClocksOverflowed is recorded when a merge was rejected
	// because the clock set was at capacity.
	EventNumClocksOverflowed EventID = MaxID - 1
)

// NewProbeID validates raw and returns it as a ProbeID.
func NewProbeID(raw uint32) (ProbeID, error) {
	if raw == 0 || raw > MaxID {
		return 0, ErrInvalidProbeID
	}
	return ProbeID(raw), nil
}

// NewEventID validates raw and returns it as an EventID. Ids in the reserved
// band are rejected; the probe emits those itself.
func NewEventID(raw uint32) (EventID, error) {
	if raw == 0 || raw > MaxUserEventID {
		return 0, ErrInvalidEventID
	}
	return EventID(raw), nil
}
