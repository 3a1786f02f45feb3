// Package probe implements the in-process side of causal tracing: a logical
// clock set plus a bounded event log, owned by exactly one execution context.
//
// # Overview
//
// A Probe records numeric events into a fixed-capacity ring log, exchanges
// clock snapshots with other probes to establish cross-probe causal order,
// and periodically drains its log into a wire report for a collector.
// All storage is allocated once in New; the record, snapshot, merge, and
// report paths never allocate and never block.
//
// API surface
//
//	p, _ := probe.New(probe.Options{ID: pid, LogCapacity: 1024, MaxClocks: 32})
//	p.RecordEvent(evt)
//	p.RecordEventWithPayload(evt, 42)
//
//	// Snapshot exchange (any side channel)
//	n, _ := p.DistributeSnapshot(buf)
//	_ = other.MergeSnapshot(buf[:n])
//
//	// Periodic reporting to a collector
//	n, _ = p.Report(buf)
//	transport.Send(buf[:n])
//
// A Probe performs no internal locking and must not be shared across
// goroutines. Callers needing multiple goroutines create one Probe per
// goroutine and exchange snapshots explicitly.
package probe
