package wire

import "encoding/binary"

// SnapshotHeaderLen is the fixed encoded size of a snapshot header.
const SnapshotHeaderLen = 2 + 4

// ClockPairLen is the encoded size of one (probe_id, count) pair.
const ClockPairLen = 8

// ClockEntry is one (probe_id, count) pair of a serialized clock set.
type ClockEntry struct {
	ProbeID uint32
	Count   uint32
}

// EncodedSnapshotSize returns the exact encoded size of a snapshot carrying
// n clock entries.
func EncodedSnapshotSize(n int) int { return SnapshotHeaderLen + n*ClockPairLen }

// PutSnapshotHeader writes the snapshot header into buf and returns the
// header length.
func PutSnapshotHeader(buf []byte, entryCount int) (int, error) {
	if len(buf) < SnapshotHeaderLen {
		return 0, ErrShortBuffer
	}
	binary.LittleEndian.PutUint16(buf[0:2], Version)
	binary.LittleEndian.PutUint32(buf[2:6], uint32(entryCount))
	return SnapshotHeaderLen, nil
}

// PutClockEntry writes one clock pair at off and returns the new offset.
func PutClockEntry(buf []byte, off int, c ClockEntry) int {
	binary.LittleEndian.PutUint32(buf[off:off+4], c.ProbeID)
	binary.LittleEndian.PutUint32(buf[off+4:off+8], c.Count)
	return off + 8
}

// WalkSnapshot parses b as a snapshot and calls fn for every clock entry in
// encoded order. It does not allocate. The entire buffer must be consumed
// exactly.
func WalkSnapshot(b []byte, fn func(ClockEntry) error) error {
	if len(b) < SnapshotHeaderLen {
		return ErrMalformedSnapshot
	}
	if v := binary.LittleEndian.Uint16(b[0:2]); v != Version {
		return ErrUnsupportedVersion
	}
	count := binary.LittleEndian.Uint32(b[2:6])
	if len(b) != EncodedSnapshotSize(int(count)) {
		return ErrMalformedSnapshot
	}
	off := SnapshotHeaderLen
	for i := uint32(0); i < count; i++ {
		c := ClockEntry{
			ProbeID: binary.LittleEndian.Uint32(b[off : off+4]),
			Count:   binary.LittleEndian.Uint32(b[off+4 : off+8]),
		}
		if err := fn(c); err != nil {
			return err
		}
		off += 8
	}
	return nil
}

// DecodeSnapshot parses b and returns all clock entries. Collector-side
// convenience; probes use WalkSnapshot to stay allocation-free.
func DecodeSnapshot(b []byte) ([]ClockEntry, error) {
	var out []ClockEntry
	err := WalkSnapshot(b, func(c ClockEntry) error {
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
