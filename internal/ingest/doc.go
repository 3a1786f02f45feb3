// Package ingest accepts probe reports, deduplicates them, persists their
// entries, and feeds the session's causal graph.
//
// One Service owns one session: a durable report log per probe plus an
// in-memory graph.Builder rebuilt from storage on startup. Reports may
// arrive over any transport; HTTP and UDP front ends both call Ingest with
// raw report bytes.
package ingest
