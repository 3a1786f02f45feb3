// Package naming maps numeric probe and event ids to human-readable names.
//
// Names live in CSV manifests (id,name,description) maintained alongside the
// instrumented code. The registry validates manifests and backs graph
// rendering; ids with no manifest entry fall back to numeric labels, and the
// reserved internal event band has built-in names.
package naming

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rzbill/causeway/internal/probe"
)

// Entry is one manifest row.
type Entry struct {
	ID          uint32
	Name        string
	Description string
}

// Registry resolves probe and event ids to names. The zero value resolves
// everything numerically.
type Registry struct {
	probes map[uint32]Entry
	events map[uint32]Entry
}

var nameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// parseManifest reads id,name,description rows. A header row starting with
// "id" is skipped. maxID bounds the id column.
func parseManifest(r io.Reader, maxID uint32) (map[uint32]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	out := make(map[uint32]Entry)
	seenNames := make(map[string]uint32)
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "id") {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("naming: line %d: want id,name[,description]", line)
		}
		id64, err := strconv.ParseUint(strings.TrimSpace(rec[0]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("naming: line %d: bad id %q", line, rec[0])
		}
		id := uint32(id64)
		if id == 0 || id > maxID {
			return nil, fmt.Errorf("naming: line %d: id %d out of range [1, %d]", line, id, maxID)
		}
		name := strings.TrimSpace(rec[1])
		if !nameRe.MatchString(name) {
			return nil, fmt.Errorf("naming: line %d: invalid name %q", line, name)
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("naming: line %d: duplicate id %d", line, id)
		}
		if prev, dup := seenNames[strings.ToLower(name)]; dup {
			return nil, fmt.Errorf("naming: line %d: name %q already used by id %d", line, name, prev)
		}
		seenNames[strings.ToLower(name)] = id
		e := Entry{ID: id, Name: name}
		if len(rec) > 2 {
			e.Description = strings.TrimSpace(rec[2])
		}
		out[id] = e
	}
	return out, nil
}

// Load reads probe and event manifests. Either path may be empty to skip
// that manifest.
func Load(probesPath, eventsPath string) (*Registry, error) {
	reg := &Registry{}
	if probesPath != "" {
		f, err := os.Open(probesPath)
		if err != nil {
			return nil, err
		}
		reg.probes, err = parseManifest(f, probe.MaxID)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", probesPath, err)
		}
	}
	if eventsPath != "" {
		f, err := os.Open(eventsPath)
		if err != nil {
			return nil, err
		}
		reg.events, err = parseManifest(f, probe.MaxUserEventID)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", eventsPath, err)
		}
	}
	return reg, nil
}

// ProbeName resolves a probe id, falling back to "probe <id>".
func (r *Registry) ProbeName(id uint32) string {
	if r != nil {
		if e, ok := r.probes[id]; ok {
			return e.Name
		}
	}
	return "probe " + strconv.FormatUint(uint64(id), 10)
}

// EventName resolves an event id. Reserved internal events have built-in
// names; everything else falls back to "event <id>".
func (r *Registry) EventName(id uint32) string {
	switch probe.EventID(id) {
	case probe.EventLogOverflowed:
		return "INTERNAL_LOG_OVERFLOWED"
	case probe.EventNumClocksOverflowed:
		return "INTERNAL_NUM_CLOCKS_OVERFLOWED"
	}
	if r != nil {
		if e, ok := r.events[id]; ok {
			return e.Name
		}
	}
	return "event " + strconv.FormatUint(uint64(id), 10)
}

// Probe returns the manifest entry for a probe id, if any.
func (r *Registry) Probe(id uint32) (Entry, bool) {
	e, ok := r.probes[id]
	return e, ok
}

// Event returns the manifest entry for an event id, if any.
func (r *Registry) Event(id uint32) (Entry, bool) {
	e, ok := r.events[id]
	return e, ok
}
