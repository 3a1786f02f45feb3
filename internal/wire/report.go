package wire

import (
	"encoding/binary"
	"errors"
)

// Version is the current wire format version for both reports and snapshots.
const Version uint16 = 1

// ReportHeaderLen is the fixed encoded size of a report header.
const ReportHeaderLen = 2 + 4 + 4 + 1 + 4

var (
	// ErrShortBuffer indicates the destination buffer cannot hold the
	// encoded value. The caller may retry with a larger buffer.
	ErrShortBuffer = errors.New("wire: destination buffer too small")
	// ErrMalformedReport indicates a truncated or length-mismatched report.
	ErrMalformedReport = errors.New("wire: malformed report")
	// ErrMalformedSnapshot indicates a truncated or length-mismatched snapshot.
	ErrMalformedSnapshot = errors.New("wire: malformed snapshot")
	// ErrUnsupportedVersion indicates a format version this decoder does not
	// understand. Hard reject, never a best-effort parse.
	ErrUnsupportedVersion = errors.New("wire: unsupported format version")
)

// Report is a decoded probe report.
type Report struct {
	ProbeID  uint32
	SeqNum   uint32
	Overflow bool
	Entries  []Entry
}

// EncodedReportSize returns the exact number of bytes EncodeReport will write
// for a report carrying the given entries.
func EncodedReportSize(entries []Entry) int {
	n := ReportHeaderLen
	for _, e := range entries {
		n += EntrySize(e)
	}
	return n
}

// PutReportHeader writes the report header into buf and returns the header
// length. buf must be at least ReportHeaderLen bytes.
func PutReportHeader(buf []byte, probeID, seqNum uint32, overflow bool, entryCount int) (int, error) {
	if len(buf) < ReportHeaderLen {
		return 0, ErrShortBuffer
	}
	binary.LittleEndian.PutUint16(buf[0:2], Version)
	binary.LittleEndian.PutUint32(buf[2:6], probeID)
	binary.LittleEndian.PutUint32(buf[6:10], seqNum)
	buf[10] = 0
	if overflow {
		buf[10] = 1
	}
	binary.LittleEndian.PutUint32(buf[11:15], uint32(entryCount))
	return ReportHeaderLen, nil
}

// PutEntry writes e into buf at off and returns the new offset. buf must have
// room for EntrySize(e) bytes at off; callers size buffers up front via
// EncodedReportSize.
func PutEntry(buf []byte, off int, e Entry) int {
	buf[off] = byte(e.Kind)
	off++
	binary.LittleEndian.PutUint32(buf[off:off+4], e.ID)
	off += 4
	if e.Kind != EntryEvent {
		binary.LittleEndian.PutUint32(buf[off:off+4], e.Val)
		off += 4
	}
	return off
}

// EncodeReport writes a full report into buf and returns the number of bytes
// written. Fails with ErrShortBuffer without touching buf's meaning if the
// encoded report does not fit.
func EncodeReport(buf []byte, probeID, seqNum uint32, overflow bool, entries []Entry) (int, error) {
	need := EncodedReportSize(entries)
	if len(buf) < need {
		return 0, ErrShortBuffer
	}
	off, err := PutReportHeader(buf, probeID, seqNum, overflow, len(entries))
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		off = PutEntry(buf, off, e)
	}
	return off, nil
}

// DecodeReport parses b as a report. The entire buffer must be consumed
// exactly; trailing or missing bytes fail with ErrMalformedReport.
func DecodeReport(b []byte) (Report, error) {
	if len(b) < ReportHeaderLen {
		return Report{}, ErrMalformedReport
	}
	if v := binary.LittleEndian.Uint16(b[0:2]); v != Version {
		return Report{}, ErrUnsupportedVersion
	}
	r := Report{
		ProbeID:  binary.LittleEndian.Uint32(b[2:6]),
		SeqNum:   binary.LittleEndian.Uint32(b[6:10]),
		Overflow: b[10] == 1,
	}
	if b[10] > 1 {
		return Report{}, ErrMalformedReport
	}
	count := binary.LittleEndian.Uint32(b[11:15])
	// The claimed count is untrusted; every entry occupies at least 5 bytes,
	// so a count the buffer cannot possibly hold is rejected before it can
	// size an allocation.
	if int(count) > (len(b)-ReportHeaderLen)/minEntrySize {
		return Report{}, ErrMalformedReport
	}
	off := ReportHeaderLen
	if count > 0 {
		r.Entries = make([]Entry, 0, count)
	}
	for i := uint32(0); i < count; i++ {
		if off >= len(b) {
			return Report{}, ErrMalformedReport
		}
		kind := EntryKind(b[off])
		off++
		var e Entry
		switch kind {
		case EntryEvent:
			if off+4 > len(b) {
				return Report{}, ErrMalformedReport
			}
			e = Event(binary.LittleEndian.Uint32(b[off : off+4]))
			off += 4
		case EntryEventWithPayload, EntryClock:
			if off+8 > len(b) {
				return Report{}, ErrMalformedReport
			}
			e = Entry{
				Kind: kind,
				ID:   binary.LittleEndian.Uint32(b[off : off+4]),
				Val:  binary.LittleEndian.Uint32(b[off+4 : off+8]),
			}
			off += 8
		default:
			return Report{}, ErrMalformedReport
		}
		r.Entries = append(r.Entries, e)
	}
	if off != len(b) {
		return Report{}, ErrMalformedReport
	}
	return r, nil
}
