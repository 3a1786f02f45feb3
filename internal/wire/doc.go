// Package wire implements the versioned binary codecs for probe reports and
// clock snapshots.
//
// # Report format
//
// All integers are fixed-width little-endian with no padding:
//
//	header: version(u16) probe_id(u32) seq_num(u32) overflow(u8) entry_count(u32)
//	entry:  kind(u8) followed by kind-specific fields:
//	          Event            event_id(u32)
//	          EventWithPayload event_id(u32) payload(u32)
//	          Clock            probe_id(u32) count(u32)
//
// # Snapshot format
//
//	header: version(u16) entry_count(u32)
//	entry:  probe_id(u32) count(u32)
//
// Both decoders reject buffers whose declared entry count does not match the
// buffer length, and reports carrying a version other than Version. Encoding
// the same value twice produces identical bytes.
//
// The encode paths write into caller-supplied buffers and never allocate, so
// they are safe to call from the probe's hot path.
package wire
