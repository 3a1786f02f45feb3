// Package session scopes collector state. All reports ingested under one
// session share a keyspace and a causal graph; separate tracing runs use
// separate sessions so their histories never mix.
package session

import (
	"encoding/json"
	"time"

	pebblestore "github.com/rzbill/causeway/internal/storage/pebble"
)

// Meta holds session metadata and per-session probe defaults.
type Meta struct {
	Name        string `json:"name"`
	CreatedAtMs int64  `json:"createdAtMs"`
	// LogCapacity and MaxClocks record the probe defaults the session was
	// created with, for operator reference only. Probes enforce their own
	// limits.
	LogCapacity int `json:"logCapacity"`
	MaxClocks   int `json:"maxClocks"`
}

// Defaults returns defaults for new sessions.
func Defaults() Meta {
	return Meta{
		LogCapacity: 1024,
		MaxClocks:   32,
	}
}

var sessMetaPrefix = []byte("sessmeta/")

// sessMetaKey builds the metadata key for a session.
func sessMetaKey(name string) []byte {
	k := make([]byte, 0, len(sessMetaPrefix)+len(name))
	k = append(k, sessMetaPrefix...)
	k = append(k, name...)
	return k
}

// EnsureSession creates a session meta record if absent, returning the
// effective meta. Idempotent: returns existing if already present.
func EnsureSession(db *pebblestore.DB, name string) (Meta, error) {
	key := sessMetaKey(name)
	if b, err := db.Get(key); err == nil && len(b) > 0 {
		var m Meta
		if err := json.Unmarshal(b, &m); err == nil {
			return m, nil
		}
		// fallthrough to rewrite if corrupted
	}
	m := Defaults()
	m.Name = name
	m.CreatedAtMs = time.Now().UnixMilli()
	bytes, err := json.Marshal(m)
	if err != nil {
		return Meta{}, err
	}
	if err := db.Set(key, bytes); err != nil {
		return Meta{}, err
	}
	return m, nil
}
