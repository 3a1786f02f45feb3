// Package graph incrementally reconstructs the causal partial order of
// events across probes from their decoded, per-probe ordered logs.
//
// # Model
//
// Every recorded event becomes a node identified by (probe, index), where
// index is the event's position in that probe's timeline. Two edge kinds
// exist: next-in-log edges between consecutive nodes of one probe, and merge
// edges crossing probes. A merge edge is established from the node that
// anchored a snapshot in the sending probe's timeline to the first node the
// receiving probe records after merging that snapshot.
//
// Self clock entries create no edges of their own; they anchor counts to
// positions in the probe's timeline so that merge edges referencing those
// counts can be resolved. A merge edge whose anchor or target has not been
// observed yet is deferred, never dropped: it resolves whenever the missing
// side arrives, and Pending reports what is still unresolved so callers can
// distinguish "no causal link" from "link pending more data".
//
// The Builder is not synchronized. It is owned by a single writer
// (ingest.Service), which serializes all mutation and reads.
package graph
