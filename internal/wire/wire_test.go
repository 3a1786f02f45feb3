package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func sampleEntries() []Entry {
	return []Entry{
		Event(10),
		EventWithPayload(20, 0xdeadbeef),
		Clock(3, 7),
		Event(11),
	}
}

func TestReportRoundTrip(t *testing.T) {
	entries := sampleEntries()
	buf := make([]byte, EncodedReportSize(entries))
	n, err := EncodeReport(buf, 1, 5, true, entries)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("size mismatch: wrote %d, sized %d", n, len(buf))
	}
	r, err := DecodeReport(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.ProbeID != 1 || r.SeqNum != 5 || !r.Overflow {
		t.Fatalf("header mismatch: %+v", r)
	}
	if len(r.Entries) != len(entries) {
		t.Fatalf("want %d entries, got %d", len(entries), len(r.Entries))
	}
	for i := range entries {
		if r.Entries[i] != entries[i] {
			t.Fatalf("entry %d mismatch: want %+v got %+v", i, entries[i], r.Entries[i])
		}
	}
}

func TestReportEncodeDeterministic(t *testing.T) {
	entries := sampleEntries()
	a := make([]byte, EncodedReportSize(entries))
	b := make([]byte, EncodedReportSize(entries))
	if _, err := EncodeReport(a, 9, 2, false, entries); err != nil {
		t.Fatalf("encode a: %v", err)
	}
	if _, err := EncodeReport(b, 9, 2, false, entries); err != nil {
		t.Fatalf("encode b: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("identical input encoded differently")
	}
}

func TestReportEmptyEntries(t *testing.T) {
	buf := make([]byte, ReportHeaderLen)
	n, err := EncodeReport(buf, 4, 1, false, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	r, err := DecodeReport(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(r.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(r.Entries))
	}
}

func TestReportShortBuffer(t *testing.T) {
	entries := sampleEntries()
	buf := make([]byte, EncodedReportSize(entries)-1)
	if _, err := EncodeReport(buf, 1, 1, false, entries); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("want ErrShortBuffer, got %v", err)
	}
}

func TestReportDecodeTruncated(t *testing.T) {
	entries := sampleEntries()
	buf := make([]byte, EncodedReportSize(entries))
	n, err := EncodeReport(buf, 1, 1, false, entries)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for cut := 1; cut < n; cut++ {
		if _, err := DecodeReport(buf[:cut]); err == nil {
			t.Fatalf("truncation at %d accepted", cut)
		}
	}
}

func TestReportDecodeTrailingBytes(t *testing.T) {
	entries := sampleEntries()
	buf := make([]byte, EncodedReportSize(entries)+3)
	if _, err := EncodeReport(buf, 1, 1, false, entries); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeReport(buf); !errors.Is(err, ErrMalformedReport) {
		t.Fatalf("want ErrMalformedReport for trailing bytes, got %v", err)
	}
}

func TestReportDecodeRejectsOversizedEntryCount(t *testing.T) {
	// A header may claim any entry count; counts the buffer cannot hold must
	// be rejected up front, before the count can size an allocation.
	for _, count := range []uint32{1, 10_000_000, 0xFFFFFFFF} {
		buf := make([]byte, ReportHeaderLen)
		if _, err := EncodeReport(buf, 1, 1, false, nil); err != nil {
			t.Fatalf("encode: %v", err)
		}
		binary.LittleEndian.PutUint32(buf[11:15], count)
		if _, err := DecodeReport(buf); !errors.Is(err, ErrMalformedReport) {
			t.Fatalf("count %d accepted: %v", count, err)
		}
	}

	// Same with a partial body: two entries' worth of bytes cannot back a
	// claim of three.
	entries := []Entry{Event(1), Event(2)}
	buf := make([]byte, EncodedReportSize(entries))
	if _, err := EncodeReport(buf, 1, 1, false, entries); err != nil {
		t.Fatalf("encode: %v", err)
	}
	binary.LittleEndian.PutUint32(buf[11:15], 3)
	if _, err := DecodeReport(buf); !errors.Is(err, ErrMalformedReport) {
		t.Fatalf("overclaimed count accepted")
	}
}

func TestReportDecodeUnknownKind(t *testing.T) {
	entries := []Entry{Event(10)}
	buf := make([]byte, EncodedReportSize(entries))
	n, err := EncodeReport(buf, 1, 1, false, entries)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	buf[ReportHeaderLen] = 0xff
	if _, err := DecodeReport(buf[:n]); !errors.Is(err, ErrMalformedReport) {
		t.Fatalf("want ErrMalformedReport, got %v", err)
	}
}

func TestReportDecodeUnsupportedVersion(t *testing.T) {
	buf := make([]byte, ReportHeaderLen)
	if _, err := EncodeReport(buf, 1, 1, false, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	binary.LittleEndian.PutUint16(buf[0:2], Version+1)
	if _, err := DecodeReport(buf); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("want ErrUnsupportedVersion, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	clocks := []ClockEntry{{ProbeID: 1, Count: 3}, {ProbeID: 2, Count: 1}}
	buf := make([]byte, EncodedSnapshotSize(len(clocks)))
	off, err := PutSnapshotHeader(buf, len(clocks))
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	for _, c := range clocks {
		off = PutClockEntry(buf, off, c)
	}
	got, err := DecodeSnapshot(buf[:off])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(clocks) {
		t.Fatalf("want %d clocks, got %d", len(clocks), len(got))
	}
	for i := range clocks {
		if got[i] != clocks[i] {
			t.Fatalf("clock %d mismatch: %+v vs %+v", i, got[i], clocks[i])
		}
	}
}

func TestSnapshotDecodeMalformed(t *testing.T) {
	buf := make([]byte, EncodedSnapshotSize(2))
	off, _ := PutSnapshotHeader(buf, 2)
	off = PutClockEntry(buf, off, ClockEntry{ProbeID: 1, Count: 1})
	_ = PutClockEntry(buf, off, ClockEntry{ProbeID: 2, Count: 1})

	// truncated body
	if _, err := DecodeSnapshot(buf[:len(buf)-1]); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("want ErrMalformedSnapshot, got %v", err)
	}
	// header shorter than minimum
	if _, err := DecodeSnapshot(buf[:3]); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("want ErrMalformedSnapshot, got %v", err)
	}
	// bad version
	binary.LittleEndian.PutUint16(buf[0:2], Version+7)
	if _, err := DecodeSnapshot(buf); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("want ErrUnsupportedVersion, got %v", err)
	}
}
