package reportlog

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
	pebblestore "github.com/rzbill/causeway/internal/storage/pebble"
	"github.com/rzbill/causeway/internal/wire"
)

// Item is one persisted log entry with its position in the report stream.
type Item struct {
	Seq   uint32
	Index uint32
	Entry wire.Entry
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Read scans this probe's persisted entries in ingestion order. limit <= 0
// reads everything.
func (l *Log) Read(limit int) ([]Item, error) {
	prefix := append(keyProbe(l.session, l.probe), entrySeg...)
	it, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Item
	for it.First(); it.Valid(); it.Next() {
		key := it.Key()
		if len(key) != len(prefix)+8 {
			return nil, fmt.Errorf("reportlog: malformed entry key %q", key)
		}
		pos := binary.BigEndian.Uint64(key[len(prefix):])
		e, ok := DecodeValue(it.Value())
		if !ok {
			return nil, fmt.Errorf("reportlog: corrupt entry at seq=%d index=%d",
				uint32(pos>>32), uint32(pos))
		}
		out = append(out, Item{Seq: uint32(pos >> 32), Index: uint32(pos), Entry: e})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, it.Error()
}

// ListProbes enumerates the probe ids with persisted state in a session, in
// ascending order. It seek-skips between probes rather than scanning every
// entry key.
func ListProbes(db *pebblestore.DB, session string) ([]uint32, error) {
	prefix := KeyProbePrefix(session)
	it, err := db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []uint32
	for it.First(); it.Valid(); {
		key := it.Key()
		if len(key) < len(prefix)+4 {
			return nil, fmt.Errorf("reportlog: malformed probe key %q", key)
		}
		probe := binary.BigEndian.Uint32(key[len(prefix) : len(prefix)+4])
		out = append(out, probe)
		if probe == ^uint32(0) {
			break
		}
		next := appendBE4(append([]byte(nil), prefix...), probe+1)
		if !it.SeekGE(next) {
			break
		}
	}
	return out, it.Error()
}
