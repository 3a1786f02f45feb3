package wire

// EntryKind tags one element of a probe's log.
type EntryKind uint8

const (
	// EntryEvent is a bare recorded event.
	EntryEvent EntryKind = 1
	// EntryEventWithPayload is a recorded event carrying a u32 payload.
	EntryEventWithPayload EntryKind = 2
	// EntryClock is a logical clock observation: the recording probe saw
	// ID's clock at count Val.
	EntryClock EntryKind = 3
)

// Entry is a single log entry in wire representation. It is a closed tagged
// union: ID holds the event id for event kinds and the probe id for clock
// kind; Val holds the payload for EntryEventWithPayload and the count for
// EntryClock, and is zero otherwise.
type Entry struct {
	Kind EntryKind
	ID   uint32
	Val  uint32
}

// Event builds a bare event entry.
func Event(eventID uint32) Entry { return Entry{Kind: EntryEvent, ID: eventID} }

// EventWithPayload builds an event entry carrying a payload.
func EventWithPayload(eventID, payload uint32) Entry {
	return Entry{Kind: EntryEventWithPayload, ID: eventID, Val: payload}
}

// Clock builds a logical clock entry.
func Clock(probeID, count uint32) Entry {
	return Entry{Kind: EntryClock, ID: probeID, Val: count}
}

// minEntrySize is the smallest encoded entry: kind tag plus one u32.
const minEntrySize = 1 + 4

// EntrySize returns the encoded size of e in bytes, including the kind tag.
func EntrySize(e Entry) int {
	if e.Kind == EntryEvent {
		return minEntrySize
	}
	return 1 + 8
}
