package graph

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// Namer supplies human-readable names for numeric ids. Implemented by
// naming.Registry; nil falls back to numeric labels.
type Namer interface {
	ProbeName(id uint32) string
	EventName(id uint32) string
}

func dotNodeName(id NodeID) string {
	return fmt.Sprintf("p%d_%d", id.Probe, id.Index)
}

// DOT renders the established graph in Graphviz DOT form. Probe timelines
// are grouped into clusters; merge edges are drawn dashed. Pending edges are
// not rendered.
func DOT(b *Builder, names Namer) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("causal"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	for _, probeID := range b.Probes() {
		cluster := "cluster_p" + strconv.FormatUint(uint64(probeID), 10)
		probeLabel := "probe " + strconv.FormatUint(uint64(probeID), 10)
		if names != nil {
			probeLabel = names.ProbeName(probeID)
		}
		if err := g.AddSubGraph("causal", cluster, map[string]string{
			"label": strconv.Quote(probeLabel),
		}); err != nil {
			return "", err
		}
		for _, n := range b.nodes[probeID] {
			eventLabel := "event " + strconv.FormatUint(uint64(n.Event), 10)
			if names != nil {
				eventLabel = names.EventName(n.Event)
			}
			label := fmt.Sprintf("%s [%d]", eventLabel, n.ID.Index)
			if n.HasPayload {
				label = fmt.Sprintf("%s = %d", label, n.Payload)
			}
			if err := g.AddNode(cluster, dotNodeName(n.ID), map[string]string{
				"label": strconv.Quote(label),
				"shape": "box",
			}); err != nil {
				return "", err
			}
		}
	}

	for _, e := range b.edges {
		attrs := map[string]string{}
		if e.Kind == EdgeMerge {
			attrs["style"] = "dashed"
		}
		if err := g.AddEdge(dotNodeName(e.From), dotNodeName(e.To), true, attrs); err != nil {
			return "", err
		}
	}
	return g.String(), nil
}
