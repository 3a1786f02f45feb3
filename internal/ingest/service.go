package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rzbill/causeway/internal/graph"
	"github.com/rzbill/causeway/internal/probe"
	"github.com/rzbill/causeway/internal/reportlog"
	"github.com/rzbill/causeway/internal/runtime"
	"github.com/rzbill/causeway/internal/wire"
	"github.com/rzbill/causeway/pkg/log"
)

// probeState tracks one probe's ingestion progress within the session.
type probeState struct {
	log       *reportlog.Log
	gaps      [][2]uint32
	overflows int
}

// Service ingests reports for one session and answers graph queries.
// All state mutation happens under a single mutex; report application is
// serialized, which keeps per-probe entry ordering trivially correct.
type Service struct {
	mu      sync.Mutex
	rt      *runtime.Runtime
	logger  log.Logger
	session string
	builder *graph.Builder
	probes  map[uint32]*probeState
}

// ProbeInfo summarizes one probe's ingestion state.
type ProbeInfo struct {
	ID        uint32      `json:"id"`
	LastSeq   uint32      `json:"lastSeq"`
	Nodes     int         `json:"nodes"`
	Gaps      [][2]uint32 `json:"gaps,omitempty"`
	Overflows int         `json:"overflows"`
}

// Open builds a Service for the given session, replaying persisted reports
// so the graph matches what was ingested before the last shutdown.
func Open(rt *runtime.Runtime, logger log.Logger, sessionName string) (*Service, error) {
	if _, err := rt.EnsureSession(sessionName); err != nil {
		return nil, fmt.Errorf("ingest: ensure session %q: %w", sessionName, err)
	}
	s := &Service{
		rt:      rt,
		logger:  logger.WithComponent("ingest"),
		session: sessionName,
		builder: graph.New(),
		probes:  make(map[uint32]*probeState),
	}
	if err := s.restore(); err != nil {
		return nil, err
	}
	return s, nil
}

// restore replays persisted entries probe by probe. Entries were stored in
// ingestion order, which is the only order the builder needs.
func (s *Service) restore() error {
	ids, err := reportlog.ListProbes(s.rt.DB(), s.session)
	if err != nil {
		return fmt.Errorf("ingest: list probes: %w", err)
	}
	for _, id := range ids {
		l, err := s.rt.OpenProbeLog(s.session, id)
		if err != nil {
			return fmt.Errorf("ingest: open probe %d: %w", id, err)
		}
		items, err := l.Read(0)
		if err != nil {
			return fmt.Errorf("ingest: read probe %d: %w", id, err)
		}
		entries := make([]wire.Entry, 0, len(items))
		for _, it := range items {
			entries = append(entries, it.Entry)
		}
		s.builder.AddEntries(id, entries)

		gaps, err := l.Gaps()
		if err != nil {
			return fmt.Errorf("ingest: gaps probe %d: %w", id, err)
		}
		s.probes[id] = &probeState{log: l, gaps: gaps}
	}
	if len(ids) > 0 {
		s.logger.Info("restored session state",
			log.Str("session", s.session), log.Int("probes", len(ids)))
	}
	return nil
}

// Session returns the session name this service ingests into.
func (s *Service) Session() string { return s.session }

// Ingest decodes and applies one raw report. Duplicates (sequence at or
// below the last accepted one) are dropped silently; skipped sequences are
// recorded as gaps and ingestion proceeds with what arrived.
func (s *Service) Ingest(ctx context.Context, raw []byte) error {
	rep, err := wire.DecodeReport(raw)
	if err != nil {
		return err
	}
	if rep.ProbeID == 0 || rep.ProbeID > probe.MaxID {
		return fmt.Errorf("%w: probe id %d out of range", wire.ErrMalformedReport, rep.ProbeID)
	}
	if rep.SeqNum == 0 {
		return fmt.Errorf("%w: report sequence must start at 1", wire.ErrMalformedReport)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.probes[rep.ProbeID]
	if !ok {
		l, err := s.rt.OpenProbeLog(s.session, rep.ProbeID)
		if err != nil {
			return fmt.Errorf("ingest: open probe %d: %w", rep.ProbeID, err)
		}
		st = &probeState{log: l}
		s.probes[rep.ProbeID] = st
	}

	lastSeen := st.log.LastSeq()
	if rep.SeqNum <= lastSeen {
		s.logger.Debug("dropped duplicate report",
			log.Uint32("probe", rep.ProbeID), log.Uint32("seq", rep.SeqNum))
		return nil
	}
	if rep.SeqNum > lastSeen+1 {
		gap := [2]uint32{lastSeen + 1, rep.SeqNum - 1}
		st.gaps = append(st.gaps, gap)
		if err := st.log.SetGaps(st.gaps); err != nil {
			return fmt.Errorf("ingest: persist gaps: %w", err)
		}
		s.logger.Warn("report gap detected",
			log.Uint32("probe", rep.ProbeID),
			log.Uint32("from", gap[0]), log.Uint32("to", gap[1]))
	}
	if rep.Overflow {
		st.overflows++
		s.logger.Warn("probe log overflowed before report",
			log.Uint32("probe", rep.ProbeID), log.Uint32("seq", rep.SeqNum))
	}

	if err := st.log.AppendReport(ctx, rep.SeqNum, rep.Entries); err != nil {
		return fmt.Errorf("ingest: append report: %w", err)
	}
	s.builder.AddEntries(rep.ProbeID, rep.Entries)

	s.logger.Debug("ingested report",
		log.Uint32("probe", rep.ProbeID), log.Uint32("seq", rep.SeqNum),
		log.Int("entries", len(rep.Entries)))
	return nil
}

// Probes lists per-probe ingestion state, ascending by id.
func (s *Service) Probes() []ProbeInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ProbeInfo, 0, len(s.probes))
	for id, st := range s.probes {
		out = append(out, ProbeInfo{
			ID:        id,
			LastSeq:   st.log.LastSeq(),
			Nodes:     s.builder.NodeCount(id),
			Gaps:      append([][2]uint32(nil), st.gaps...),
			Overflows: st.overflows,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Nodes returns graph nodes, optionally filtered by a CEL expression over
// probe, event, seq, has_payload, payload.
func (s *Service) Nodes(filterExpr string) ([]graph.Node, error) {
	f, err := graph.NewNodeFilter(filterExpr)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []graph.Node
	for _, n := range s.builder.Nodes() {
		if f.Eval(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Edges returns every established causal edge.
func (s *Service) Edges() []graph.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.Edges()
}

// Pending returns merge edges still waiting on unreported data.
func (s *Service) Pending() []graph.PendingEdge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.Pending()
}

// DOT renders the current graph in Graphviz form.
func (s *Service) DOT(names graph.Namer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return graph.DOT(s.builder, names)
}
