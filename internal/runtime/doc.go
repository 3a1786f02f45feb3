// Package runtime wires storage, config, and per-session facades for a
// single-node collector instance.
package runtime
