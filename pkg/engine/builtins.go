package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/graph"
	"github.com/chazu/loam/pkg/manager"
)

// ---------------------------------------------------------------------------
// Script values
// ---------------------------------------------------------------------------

// sexpNodeRef is what (node ...) returns: a node of one graph.
type sexpNodeRef struct {
	graph *graph.Graph
	id    string
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(noderef %q %q)", n.graph.ID, n.id)
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a keyword rewritten by preprocessSource and
// returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// keys returns the keyword names in sorted order.
func (a kwArgs) keys() []string {
	keys := lo.Keys(a.kw)
	slices.Sort(keys)
	return keys
}

// parseArgs separates args into keyword and positional arguments. A
// trailing keyword without a value maps to null.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts both a keyword (:perlin) and a plain string.
func toKeywordString(s zygo.Sexp) (string, error) {
	if name, ok := isKW(s); ok {
		return name, nil
	}
	return toString(s)
}

func toNodeRef(s zygo.Sexp) (*sexpNodeRef, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref, nil
	}
	return nil, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toAttrValue converts a script value into the loosely typed form accepted
// by attr.Assign. Lists become []float64.
func toAttrValue(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpStr:
		if kw, ok := isKW(v); ok {
			return attrKey(kw), nil
		}
		return v.S, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("unsupported attribute value %T (%s)", s, s.SexpString(nil))
	}
	fs := make([]float64, len(items))
	for i, item := range items {
		if fs[i], err = toFloat64(item); err != nil {
			return nil, fmt.Errorf("list item %d: %w", i, err)
		}
	}
	return fs, nil
}

// toPair reads a number n as (n, n) or a two element list as its pair.
func toPair(s zygo.Sexp) (float64, float64, error) {
	if f, err := toFloat64(s); err == nil {
		return f, f, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil || len(items) != 2 {
		return 0, 0, fmt.Errorf("expected a number or a pair, got %s", s.SexpString(nil))
	}
	x, err := toFloat64(items[0])
	if err != nil {
		return 0, 0, err
	}
	y, err := toFloat64(items[1])
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// attrKey maps a keyword to an attribute key: :noise-type -> noise_type.
func attrKey(kw string) string {
	return strings.ReplaceAll(kw, "-", "_")
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// script is the evaluation state shared by the builtins.
type script struct {
	project *manager.Manager
	current *graph.Graph
}

func newScript(m *manager.Manager) *script {
	return &script{project: m}
}

// graph returns the current graph, creating one on first use.
func (s *script) graph() (*graph.Graph, error) {
	if s.current != nil {
		return s.current, nil
	}
	g, err := s.project.NewGraph()
	if err != nil {
		return nil, err
	}
	s.current = g
	return g, nil
}

// setAttrs assigns every keyword argument except skip to node id.
func setAttrs(g *graph.Graph, id string, pa kwArgs, skip ...string) error {
	for _, kw := range pa.keys() {
		if slices.Contains(skip, kw) {
			continue
		}
		v, err := toAttrValue(pa.kw[kw])
		if err != nil {
			return fmt.Errorf("%s: %w", kw, err)
		}
		if err := g.SetAttr(id, attrKey(kw), v); err != nil {
			return err
		}
	}
	return nil
}

// registerBuiltins installs the project builtins into env. Source must go
// through preprocessSource first so keywords are recognisable.
func registerBuiltins(env *zygo.Zlisp, s *script) {

	// -----------------------------------------------------------------------
	// (config :shape 512 :tiling (list 4 4) :overlap 0.25)
	// -----------------------------------------------------------------------
	env.AddFunction("config", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		cfg := s.project.Config
		for _, kw := range pa.keys() {
			v := pa.kw[kw]
			switch kw {
			case "shape", "tiling":
				x, y, err := toPair(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("config: %s: %w", kw, err)
				}
				if kw == "shape" {
					cfg.Shape = geom.V2(int(x), int(y))
				} else {
					cfg.Tiling = geom.V2(int(x), int(y))
				}
			case "overlap":
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("config: overlap: %w", err)
				}
				cfg.Overlap = f
			default:
				return zygo.SexpNull, fmt.Errorf("config: unknown setting %q", kw)
			}
		}
		if err := s.project.SetConfig(cfg); err != nil {
			return zygo.SexpNull, fmt.Errorf("config: %w", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (graph "terrain") selects the graph, creating it when missing.
	// (graph) starts a new graph with a generated id.
	// -----------------------------------------------------------------------
	env.AddFunction("graph", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 0 {
			g, err := s.project.NewGraph()
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("graph: %w", err)
			}
			s.current = g
			return &zygo.SexpStr{S: g.ID}, nil
		}
		id, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("graph: id: %w", err)
		}
		g, ok := s.project.Graph(id)
		if !ok {
			if g, err = s.project.AddGraph(id); err != nil {
				return zygo.SexpNull, fmt.Errorf("graph: %w", err)
			}
		}
		s.current = g
		return &zygo.SexpStr{S: id}, nil
	})

	// -----------------------------------------------------------------------
	// (node "NoiseFbm" :id "base" :caption "Base" :seed 3 :kw (list 4 4))
	// -----------------------------------------------------------------------
	env.AddFunction("node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, errors.New("node requires a type name")
		}
		typ, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: type: %w", err)
		}
		g, err := s.graph()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: %w", err)
		}

		var id string
		if v, ok := pa.kw["id"]; ok {
			if id, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("node: id: %w", err)
			}
			err = g.AddNodeWithID(typ, id)
		} else {
			id, err = g.AddNode(typ)
		}
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: %w", err)
		}

		if v, ok := pa.kw["caption"]; ok {
			caption, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("node: caption: %w", err)
			}
			n, _ := g.Node(id)
			n.Caption = caption
		}
		if err := setAttrs(g, id, pa, "id", "caption"); err != nil {
			return zygo.SexpNull, fmt.Errorf("node %s: %w", typ, err)
		}
		return &sexpNodeRef{graph: g, id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (attr ref :radius 0.05 :inverse true)
	// -----------------------------------------------------------------------
	env.AddFunction("attr", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, errors.New("attr requires a node reference")
		}
		ref, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("attr: %w", err)
		}
		if err := setAttrs(ref.graph, ref.id, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("attr: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (link from to) joins output to input.
	// (link from "dx" to "input") names both ports.
	// -----------------------------------------------------------------------
	env.AddFunction("link", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		l, g, err := parseLink(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("link: %w", err)
		}
		if err := g.AddLink(l); err != nil {
			return zygo.SexpNull, fmt.Errorf("link: %w", err)
		}
		return zygo.SexpNull, nil
	})

	env.AddFunction("unlink", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		l, g, err := parseLink(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("unlink: %w", err)
		}
		if err := g.RemoveLink(l); err != nil {
			return zygo.SexpNull, fmt.Errorf("unlink: %w", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (set-order "erosion" "base") reorders the project's graphs.
	// -----------------------------------------------------------------------
	env.AddFunction("set_order", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		ids := make([]string, len(args))
		for i, a := range args {
			id, err := toString(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("set-order: %w", err)
			}
			ids[i] = id
		}
		if err := s.project.SetGraphOrder(ids); err != nil {
			return zygo.SexpNull, fmt.Errorf("set-order: %w", err)
		}
		return zygo.SexpNull, nil
	})
}

// parseLink reads [from [from-port] to [to-port]].
func parseLink(args []zygo.Sexp) (graph.Link, *graph.Graph, error) {
	var refs []*sexpNodeRef
	ports := [2]string{"output", "input"}
	for _, a := range args {
		if ref, ok := a.(*sexpNodeRef); ok {
			if len(refs) == 2 {
				return graph.Link{}, nil, errors.New("too many node references")
			}
			refs = append(refs, ref)
			continue
		}
		port, err := toKeywordString(a)
		if err != nil {
			return graph.Link{}, nil, err
		}
		if len(refs) == 0 {
			return graph.Link{}, nil, errors.New("port name before node reference")
		}
		ports[len(refs)-1] = port
	}
	if len(refs) != 2 {
		return graph.Link{}, nil, errors.New("expected two node references")
	}
	if refs[0].graph != refs[1].graph {
		return graph.Link{}, nil, fmt.Errorf("nodes %s and %s belong to different graphs", refs[0].id, refs[1].id)
	}
	return graph.Link{
		FromNode: refs[0].id,
		FromPort: ports[0],
		ToNode:   refs[1].id,
		ToPort:   ports[1],
	}, refs[0].graph, nil
}
