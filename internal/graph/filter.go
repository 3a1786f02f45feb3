package graph

import (
	"strings"

	"github.com/google/cel-go/cel"
)

// NodeFilter wraps a compiled CEL program evaluated per node by the graph
// query API. When disabled (empty expression), Eval always returns true.
type NodeFilter struct {
	prog    cel.Program
	enabled bool
}

// NewNodeFilter compiles expr against the node variable set: probe, event,
// seq (timeline index), has_payload, payload.
func NewNodeFilter(expr string) (NodeFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return NodeFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("probe", cel.IntType),
		cel.Variable("event", cel.IntType),
		cel.Variable("seq", cel.IntType),
		cel.Variable("has_payload", cel.BoolType),
		cel.Variable("payload", cel.IntType),
	)
	if err != nil {
		return NodeFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return NodeFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return NodeFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return NodeFilter{}, err
	}
	return NodeFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against a node. When disabled,
// returns true. Evaluation errors count as non-matches.
func (f NodeFilter) Eval(n Node) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"probe":       int64(n.ID.Probe),
		"event":       int64(n.Event),
		"seq":         int64(n.ID.Index),
		"has_payload": n.HasPayload,
		"payload":     int64(n.Payload),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
