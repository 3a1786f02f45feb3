package reportlog

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/pebble"
	pebblestore "github.com/rzbill/causeway/internal/storage/pebble"
	"github.com/rzbill/causeway/internal/wire"
)

// Log provides durable append operations for one (session, probe) stream.
type Log struct {
	db      *pebblestore.DB
	session string
	probe   uint32

	mu      sync.Mutex
	lastSeq uint32
}

// Open initializes a Log and loads the last accepted report sequence from
// metadata (if any).
func Open(db *pebblestore.DB, session string, probe uint32) (*Log, error) {
	l := &Log{db: db, session: session, probe: probe}
	meta, err := db.Get(KeyMeta(session, probe))
	if err == nil && len(meta) >= 4 {
		l.lastSeq = binary.BigEndian.Uint32(meta[:4])
	}
	return l, nil
}

// LastSeq returns the highest accepted report sequence, 0 if none.
func (l *Log) LastSeq() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// AppendReport persists one report's entries as a single atomic batch and
// advances the stored last sequence. Reports at or below the last accepted
// sequence are ignored, so replays after a crash are harmless.
func (l *Log) AppendReport(ctx context.Context, seq uint32, entries []wire.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq <= l.lastSeq {
		return nil
	}

	b := l.db.NewBatch()
	defer b.Close()

	for i, e := range entries {
		key := KeyEntry(l.session, l.probe, seq, uint32(i))
		if err := b.Set(key, EncodeValue(e), nil); err != nil {
			return err
		}
	}
	var meta [4]byte
	binary.BigEndian.PutUint32(meta[:], seq)
	if err := b.Set(KeyMeta(l.session, l.probe), meta[:], nil); err != nil {
		return err
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		return err
	}
	l.lastSeq = seq
	return nil
}

// SetGaps replaces the stored missing-report ranges for this probe. Ranges
// are inclusive [from, to] report sequences.
func (l *Log) SetGaps(gaps [][2]uint32) error {
	buf := make([]byte, 0, len(gaps)*8)
	for _, g := range gaps {
		buf = appendBE4(buf, g[0])
		buf = appendBE4(buf, g[1])
	}
	return l.db.Set(KeyGaps(l.session, l.probe), buf)
}

// Gaps loads the stored missing-report ranges, empty if none.
func (l *Log) Gaps() ([][2]uint32, error) {
	b, err := l.db.Get(KeyGaps(l.session, l.probe))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var out [][2]uint32
	for off := 0; off+8 <= len(b); off += 8 {
		out = append(out, [2]uint32{
			binary.BigEndian.Uint32(b[off : off+4]),
			binary.BigEndian.Uint32(b[off+4 : off+8]),
		})
	}
	return out, nil
}
