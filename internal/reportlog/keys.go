package reportlog

import "encoding/binary"

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - sess/{session}/probe/{probe_be4}/m
// - sess/{session}/probe/{probe_be4}/e/{pos_be8}
// - sess/{session}/probe/{probe_be4}/g

var (
	sessPrefix = []byte("sess/")
	probeSeg   = []byte("/probe/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
	gapSuffix  = []byte("/g")
)

func appendBE4(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

func keyProbe(session string, probe uint32) []byte {
	k := make([]byte, 0, len(session)+24)
	k = append(k, sessPrefix...)
	k = append(k, session...)
	k = append(k, probeSeg...)
	k = appendBE4(k, probe)
	return k
}

// KeyMeta builds the probe metadata key.
func KeyMeta(session string, probe uint32) []byte {
	return append(keyProbe(session, probe), metaSuffix...)
}

// KeyEntry builds an entry key. pos packs (report_seq, entry_index) so that
// big-endian ordering matches ingestion order.
func KeyEntry(session string, probe uint32, seq uint32, index uint32) []byte {
	k := append(keyProbe(session, probe), entrySeg...)
	return appendBE8(k, uint64(seq)<<32|uint64(index))
}

// KeyGaps builds the gap-range key.
func KeyGaps(session string, probe uint32) []byte {
	return append(keyProbe(session, probe), gapSuffix...)
}

// KeyProbePrefix returns the range prefix covering all keys of a session's
// probes.
func KeyProbePrefix(session string) []byte {
	k := make([]byte, 0, len(session)+16)
	k = append(k, sessPrefix...)
	k = append(k, session...)
	k = append(k, probeSeg...)
	return k
}
