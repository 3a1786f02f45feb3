package graph

import (
	"sort"

	"github.com/rzbill/causeway/internal/wire"
)

// NodeID identifies one recorded event instance.
type NodeID struct {
	Probe uint32 `json:"probe"`
	Index uint32 `json:"index"`
}

// Node is one recorded event in some probe's timeline.
type Node struct {
	ID         NodeID `json:"id"`
	Event      uint32 `json:"event"`
	HasPayload bool   `json:"hasPayload"`
	Payload    uint32 `json:"payload,omitempty"`
}

// EdgeKind distinguishes same-probe ordering edges from cross-probe merges.
type EdgeKind uint8

const (
	// EdgeNext links consecutive nodes within one probe's timeline.
	EdgeNext EdgeKind = 1
	// EdgeMerge links a snapshot's anchor node to the first node its
	// receiver recorded after the merge.
	EdgeMerge EdgeKind = 2
)

func (k EdgeKind) String() string {
	if k == EdgeMerge {
		return "merge"
	}
	return "next"
}

// Edge states that From is known to have causally preceded To.
type Edge struct {
	From NodeID   `json:"from"`
	To   NodeID   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// PendingEdge describes a deferred merge edge: which (probe, count) anchor
// it waits for and which probe's next node will terminate it.
type PendingEdge struct {
	SourceProbe uint32 `json:"sourceProbe"`
	SourceCount uint32 `json:"sourceCount"`
	TargetProbe uint32 `json:"targetProbe"`
	SourceKnown bool   `json:"sourceKnown"`
	TargetKnown bool   `json:"targetKnown"`
}

// clockRef names a point in a probe's history: the moment its own clock
// reached Count.
type clockRef struct {
	probe uint32
	count uint32
}

// anchorPoint records where in a probe's timeline a clockRef landed.
// hasNode is false when the snapshot preceded any recorded event, in which
// case merge edges referencing it resolve to "no causal link".
type anchorPoint struct {
	node    NodeID
	hasNode bool
}

// mergeLink is one merge edge under construction. Source and target resolve
// independently and in any order.
type mergeLink struct {
	source      clockRef
	targetProbe uint32

	sourceNode  NodeID
	sourceKnown bool
	sourceNone  bool

	target      NodeID
	targetKnown bool

	done bool
}

// Builder owns the causal graph for one collection session. Nodes and edges
// are only ever added.
type Builder struct {
	nodes map[uint32][]Node
	edges []Edge

	anchors        map[clockRef]anchorPoint
	awaitingSource map[clockRef][]*mergeLink
	openTargets    map[uint32][]*mergeLink
	links          []*mergeLink
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{
		nodes:          make(map[uint32][]Node),
		anchors:        make(map[clockRef]anchorPoint),
		awaitingSource: make(map[clockRef][]*mergeLink),
		openTargets:    make(map[uint32][]*mergeLink),
	}
}

// AddEntries consumes one probe's decoded log entries in chronological
// order. Entries from the same probe must be fed in log order; entries from
// different probes may arrive in any interleaving.
func (b *Builder) AddEntries(probeID uint32, entries []wire.Entry) {
	for _, e := range entries {
		switch e.Kind {
		case wire.EntryEvent, wire.EntryEventWithPayload:
			b.addNode(probeID, e)
		case wire.EntryClock:
			if e.ID == probeID {
				b.addAnchor(clockRef{probe: probeID, count: e.Val})
			} else {
				b.addMergeRef(probeID, clockRef{probe: e.ID, count: e.Val})
			}
		}
	}
}

func (b *Builder) addNode(probeID uint32, e wire.Entry) {
	timeline := b.nodes[probeID]
	idx := uint32(len(timeline))
	n := Node{
		ID:         NodeID{Probe: probeID, Index: idx},
		Event:      e.ID,
		HasPayload: e.Kind == wire.EntryEventWithPayload,
		Payload:    e.Val,
	}
	b.nodes[probeID] = append(timeline, n)

	// the next-in-log edge always lands before any merge edge touches the
	// new node
	if idx > 0 {
		b.edges = append(b.edges, Edge{
			From: NodeID{Probe: probeID, Index: idx - 1},
			To:   n.ID,
			Kind: EdgeNext,
		})
	}

	if waiting := b.openTargets[probeID]; len(waiting) > 0 {
		for _, l := range waiting {
			l.target = n.ID
			l.targetKnown = true
			b.tryEmit(l)
		}
		delete(b.openTargets, probeID)
	}
}

func (b *Builder) addAnchor(ref clockRef) {
	if _, ok := b.anchors[ref]; ok {
		return
	}
	a := anchorPoint{}
	if timeline := b.nodes[ref.probe]; len(timeline) > 0 {
		a.node = timeline[len(timeline)-1].ID
		a.hasNode = true
	}
	b.anchors[ref] = a

	for _, l := range b.awaitingSource[ref] {
		b.applyAnchor(l, a)
		b.tryEmit(l)
	}
	delete(b.awaitingSource, ref)
}

func (b *Builder) addMergeRef(targetProbe uint32, ref clockRef) {
	l := &mergeLink{source: ref, targetProbe: targetProbe}
	if a, ok := b.anchors[ref]; ok {
		b.applyAnchor(l, a)
	} else {
		b.awaitingSource[ref] = append(b.awaitingSource[ref], l)
	}
	b.openTargets[targetProbe] = append(b.openTargets[targetProbe], l)
	b.links = append(b.links, l)
}

func (b *Builder) applyAnchor(l *mergeLink, a anchorPoint) {
	if a.hasNode {
		l.sourceNode = a.node
		l.sourceKnown = true
		return
	}
	// anchor existed but had no preceding event: resolved as no link
	l.sourceNone = true
	l.done = true
}

func (b *Builder) tryEmit(l *mergeLink) {
	if l.done || !l.sourceKnown || !l.targetKnown {
		return
	}
	b.edges = append(b.edges, Edge{From: l.sourceNode, To: l.target, Kind: EdgeMerge})
	l.done = true
}

// NodeCount returns the number of nodes recorded for a probe.
func (b *Builder) NodeCount(probeID uint32) int { return len(b.nodes[probeID]) }

// Probes returns every probe id with at least one node, ascending.
func (b *Builder) Probes() []uint32 {
	out := make([]uint32, 0, len(b.nodes))
	for id := range b.nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Nodes returns all nodes ordered by probe id, then timeline index.
func (b *Builder) Nodes() []Node {
	var out []Node
	for _, id := range b.Probes() {
		out = append(out, b.nodes[id]...)
	}
	return out
}

// NodesOf returns one probe's timeline in order.
func (b *Builder) NodesOf(probeID uint32) []Node {
	return append([]Node(nil), b.nodes[probeID]...)
}

// Edges returns every established edge in insertion order.
func (b *Builder) Edges() []Edge {
	return append([]Edge(nil), b.edges...)
}

// Pending returns every merge edge still waiting on data. Links resolved as
// "no causal link" are not pending.
func (b *Builder) Pending() []PendingEdge {
	var out []PendingEdge
	for _, l := range b.links {
		if l.done {
			continue
		}
		out = append(out, PendingEdge{
			SourceProbe: l.source.probe,
			SourceCount: l.source.count,
			TargetProbe: l.targetProbe,
			SourceKnown: l.sourceKnown,
			TargetKnown: l.targetKnown,
		})
	}
	return out
}
