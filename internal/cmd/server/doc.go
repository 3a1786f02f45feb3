// Package serverrun boots the collector: storage, ingest service, and the
// HTTP and UDP front ends.
package serverrun
