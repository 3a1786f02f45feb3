package ingest

import (
	"context"
	"testing"

	cfgpkg "github.com/rzbill/causeway/internal/config"
	"github.com/rzbill/causeway/internal/graph"
	"github.com/rzbill/causeway/internal/runtime"
	pebblestore "github.com/rzbill/causeway/internal/storage/pebble"
	"github.com/rzbill/causeway/internal/wire"
	"github.com/rzbill/causeway/pkg/log"
)

func openTestRuntime(t *testing.T, dir string) *runtime.Runtime {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{
		DataDir: dir,
		Fsync:   pebblestore.FsyncModeAlways,
		Config:  cfgpkg.Default(),
	})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	return rt
}

func openTestService(t *testing.T, rt *runtime.Runtime) *Service {
	t.Helper()
	s, err := Open(rt, log.NewTestLogger(), "default")
	if err != nil {
		t.Fatalf("open service: %v", err)
	}
	return s
}

func encodeReport(t *testing.T, probeID, seq uint32, overflow bool, entries []wire.Entry) []byte {
	t.Helper()
	buf := make([]byte, wire.EncodedReportSize(entries))
	n, err := wire.EncodeReport(buf, probeID, seq, overflow, entries)
	if err != nil {
		t.Fatalf("encode report: %v", err)
	}
	return buf[:n]
}

func TestIngestBuildsCrossProbeEdge(t *testing.T) {
	rt := openTestRuntime(t, t.TempDir())
	defer rt.Close()
	s := openTestService(t, rt)
	ctx := context.Background()

	// Probe 1 records an event, then snapshots its clock at count 1.
	repA := encodeReport(t, 1, 1, false, []wire.Entry{
		wire.Event(100),
		wire.Clock(1, 1),
	})
	// Probe 2 merges that snapshot, then records its own event.
	repB := encodeReport(t, 2, 1, false, []wire.Entry{
		wire.Clock(1, 1),
		wire.Event(200),
	})
	if err := s.Ingest(ctx, repA); err != nil {
		t.Fatalf("ingest A: %v", err)
	}
	if err := s.Ingest(ctx, repB); err != nil {
		t.Fatalf("ingest B: %v", err)
	}

	nodes, err := s.Nodes("")
	if err != nil {
		t.Fatalf("nodes: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("want 2 nodes, got %d", len(nodes))
	}

	var merge *graph.Edge
	edges := s.Edges()
	for i := range edges {
		if edges[i].Kind == graph.EdgeMerge {
			merge = &edges[i]
		}
	}
	if merge == nil {
		t.Fatalf("no merge edge established")
	}
	if merge.From != (graph.NodeID{Probe: 1, Index: 0}) || merge.To != (graph.NodeID{Probe: 2, Index: 0}) {
		t.Fatalf("merge edge wrong: %+v", merge)
	}
	if p := s.Pending(); len(p) != 0 {
		t.Fatalf("unexpected pending edges: %+v", p)
	}
}

func TestDuplicateReportDropped(t *testing.T) {
	rt := openTestRuntime(t, t.TempDir())
	defer rt.Close()
	s := openTestService(t, rt)
	ctx := context.Background()

	rep := encodeReport(t, 5, 1, false, []wire.Entry{wire.Event(7)})
	if err := s.Ingest(ctx, rep); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := s.Ingest(ctx, rep); err != nil {
		t.Fatalf("ingest dup: %v", err)
	}
	nodes, err := s.Nodes("")
	if err != nil {
		t.Fatalf("nodes: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("duplicate applied: %d nodes", len(nodes))
	}
}

func TestGapRecorded(t *testing.T) {
	rt := openTestRuntime(t, t.TempDir())
	defer rt.Close()
	s := openTestService(t, rt)
	ctx := context.Background()

	if err := s.Ingest(ctx, encodeReport(t, 3, 1, false, []wire.Entry{wire.Event(1)})); err != nil {
		t.Fatalf("ingest seq 1: %v", err)
	}
	// seq 2 and 3 lost in transit
	if err := s.Ingest(ctx, encodeReport(t, 3, 4, false, []wire.Entry{wire.Event(2)})); err != nil {
		t.Fatalf("ingest seq 4: %v", err)
	}

	infos := s.Probes()
	if len(infos) != 1 {
		t.Fatalf("want 1 probe, got %d", len(infos))
	}
	if infos[0].LastSeq != 4 {
		t.Fatalf("lastSeq = %d", infos[0].LastSeq)
	}
	if len(infos[0].Gaps) != 1 || infos[0].Gaps[0] != [2]uint32{2, 3} {
		t.Fatalf("gaps = %v", infos[0].Gaps)
	}
}

func TestGapLeavesMergeEdgePending(t *testing.T) {
	// Probe 1's snapshot anchor (its self-clock entry) travels in report
	// seq 2, which never arrives. Probe 2 merged that snapshot, so its merge
	// edge must stay pending on the source side while probe 1's gap stays
	// visible.
	rt := openTestRuntime(t, t.TempDir())
	defer rt.Close()
	s := openTestService(t, rt)
	ctx := context.Background()

	if err := s.Ingest(ctx, encodeReport(t, 1, 1, false, []wire.Entry{wire.Event(100)})); err != nil {
		t.Fatalf("ingest seq 1: %v", err)
	}
	// seq 2 carried wire.Clock(1, 1); it is lost in transit
	if err := s.Ingest(ctx, encodeReport(t, 1, 3, false, []wire.Entry{wire.Event(101)})); err != nil {
		t.Fatalf("ingest seq 3: %v", err)
	}
	if err := s.Ingest(ctx, encodeReport(t, 2, 1, false, []wire.Entry{
		wire.Clock(1, 1), wire.Event(200),
	})); err != nil {
		t.Fatalf("ingest probe 2: %v", err)
	}

	pending := s.Pending()
	if len(pending) != 1 {
		t.Fatalf("want 1 pending edge, got %+v", pending)
	}
	p := pending[0]
	if p.SourceProbe != 1 || p.SourceCount != 1 || p.TargetProbe != 2 {
		t.Fatalf("pending edge wrong: %+v", p)
	}
	if p.SourceKnown || !p.TargetKnown {
		t.Fatalf("edge must wait on the skipped anchor only: %+v", p)
	}
	for _, e := range s.Edges() {
		if e.Kind == graph.EdgeMerge {
			t.Fatalf("merge edge established despite missing anchor: %+v", e)
		}
	}

	infos := s.Probes()
	if len(infos) != 2 || infos[0].ID != 1 {
		t.Fatalf("probes = %+v", infos)
	}
	if len(infos[0].Gaps) != 1 || infos[0].Gaps[0] != [2]uint32{2, 2} {
		t.Fatalf("probe 1 gap not visible: %+v", infos[0])
	}
}

func TestOverflowCounted(t *testing.T) {
	rt := openTestRuntime(t, t.TempDir())
	defer rt.Close()
	s := openTestService(t, rt)

	rep := encodeReport(t, 9, 1, true, []wire.Entry{wire.Event(1)})
	if err := s.Ingest(context.Background(), rep); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if infos := s.Probes(); infos[0].Overflows != 1 {
		t.Fatalf("overflows = %d", infos[0].Overflows)
	}
}

func TestRestoreAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	rt := openTestRuntime(t, dir)
	s := openTestService(t, rt)
	ctx := context.Background()

	if err := s.Ingest(ctx, encodeReport(t, 1, 1, false, []wire.Entry{
		wire.Event(100), wire.Clock(1, 1),
	})); err != nil {
		t.Fatalf("ingest A: %v", err)
	}
	if err := s.Ingest(ctx, encodeReport(t, 2, 2, false, []wire.Entry{
		wire.Clock(1, 1), wire.Event(200),
	})); err != nil {
		t.Fatalf("ingest B: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rt = openTestRuntime(t, dir)
	defer rt.Close()
	s2 := openTestService(t, rt)

	nodes, err := s2.Nodes("")
	if err != nil {
		t.Fatalf("nodes: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("want 2 restored nodes, got %d", len(nodes))
	}
	var merges int
	for _, e := range s2.Edges() {
		if e.Kind == graph.EdgeMerge {
			merges++
		}
	}
	if merges != 1 {
		t.Fatalf("want 1 restored merge edge, got %d", merges)
	}
	infos := s2.Probes()
	if len(infos) != 2 {
		t.Fatalf("want 2 probes, got %d", len(infos))
	}
	// Probe 2 started at seq 2, so seq 1 shows as a gap after restore too.
	if infos[1].ID != 2 || len(infos[1].Gaps) != 1 || infos[1].Gaps[0] != [2]uint32{1, 1} {
		t.Fatalf("probe 2 gaps = %+v", infos[1])
	}
}

func TestIngestRejectsMalformed(t *testing.T) {
	rt := openTestRuntime(t, t.TempDir())
	defer rt.Close()
	s := openTestService(t, rt)
	ctx := context.Background()

	if err := s.Ingest(ctx, []byte{0x01, 0x02}); err == nil {
		t.Fatalf("garbage accepted")
	}
	if err := s.Ingest(ctx, encodeReport(t, 0, 1, false, nil)); err == nil {
		t.Fatalf("probe id 0 accepted")
	}
	if err := s.Ingest(ctx, encodeReport(t, 1, 0, false, nil)); err == nil {
		t.Fatalf("seq 0 accepted")
	}
}

func TestNodesFilter(t *testing.T) {
	rt := openTestRuntime(t, t.TempDir())
	defer rt.Close()
	s := openTestService(t, rt)
	ctx := context.Background()

	if err := s.Ingest(ctx, encodeReport(t, 1, 1, false, []wire.Entry{
		wire.Event(100), wire.EventWithPayload(101, 42),
	})); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	nodes, err := s.Nodes("has_payload && payload > 40")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Event != 101 {
		t.Fatalf("filter result: %+v", nodes)
	}
	if _, err := s.Nodes("not valid ("); err == nil {
		t.Fatalf("bad expression accepted")
	}
}
