// Package reportlog persists the decoded log entries of accepted reports,
// keyed by (session, probe), so the collector can rebuild its causal graph
// after a restart without asking probes to re-report.
//
// Keys are lexicographically ordered for efficient range scans:
//   - sess/{session}/probe/{probe_be4}/m           (probe metadata: last accepted report seq)
//   - sess/{session}/probe/{probe_be4}/e/{pos_be8} (entries; pos = report_seq<<32 | entry_index)
//   - sess/{session}/probe/{probe_be4}/g           (gap ranges)
//
// Entry values are stored as: entry bytes | crc32c(entry bytes).
//
// API surface (internal)
//
//	l, _ := reportlog.Open(db, "default", probeID)
//	_ = l.AppendReport(ctx, seq, entries)     // atomic batch, idempotent on stale seq
//	items, _ := l.Read(0)                     // all persisted entries in order
//	_ = l.SetGaps([][2]uint32{{3, 3}})        // missing-report markers
package reportlog
