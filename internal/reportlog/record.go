package reportlog

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/rzbill/causeway/internal/wire"
)

// Stored value encoding: entry bytes | crc32c(entry bytes). Entries are
// fixed small, so the wire encoding doubles as the storage encoding.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeValue frames one wire entry for storage.
func EncodeValue(e wire.Entry) []byte {
	var buf [16]byte
	n := wire.PutEntry(buf[:], 0, e)
	crc := crc32.Checksum(buf[:n], castagnoli)
	out := make([]byte, 0, n+4)
	out = append(out, buf[:n]...)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...)
}

// DecodeValue parses a stored value back into a wire entry. Returns false on
// truncation, checksum mismatch, or an unknown entry kind.
func DecodeValue(b []byte) (wire.Entry, bool) {
	if len(b) < 1+4+4 {
		return wire.Entry{}, false
	}
	body := b[:len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Checksum(body, castagnoli) != expect {
		return wire.Entry{}, false
	}
	kind := wire.EntryKind(body[0])
	switch kind {
	case wire.EntryEvent:
		if len(body) != 5 {
			return wire.Entry{}, false
		}
		return wire.Event(binary.LittleEndian.Uint32(body[1:5])), true
	case wire.EntryEventWithPayload, wire.EntryClock:
		if len(body) != 9 {
			return wire.Entry{}, false
		}
		return wire.Entry{
			Kind: kind,
			ID:   binary.LittleEndian.Uint32(body[1:5]),
			Val:  binary.LittleEndian.Uint32(body[5:9]),
		}, true
	default:
		return wire.Entry{}, false
	}
}
