// Package node implements the base node of the terrain graph: a typed set
// of input and output ports, an ordered attribute map, a compute function
// and the bookkeeping around it (state, timing, observers).
//
// Nodes never hold references to each other. An input is resolved at
// compute time through the resolver installed by the owning graph, which
// looks the upstream node up by id; a missing link or upstream node reads
// as "no data".
package node

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/config"
	"github.com/chazu/loam/pkg/hmap"
)

// State is the freshness of a node's outputs.
type State int

const (
	Stale State = iota
	Computing
	Fresh
)

func (s State) String() string {
	switch s {
	case Stale:
		return "stale"
	case Computing:
		return "computing"
	case Fresh:
		return "fresh"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ComputeFunc produces a node's outputs from its inputs and attributes.
type ComputeFunc func(n *Node) error

// Resolver returns the value feeding input port name, or nil when the port
// is not connected or its source is gone.
type Resolver func(port string) any

// Broadcaster is the cross-graph heightmap registry a node can publish to
// and read from. It is installed by the graph manager.
type Broadcaster interface {
	Publish(tag string, h *hmap.Heightmap)
	Unpublish(tag string)
	Lookup(tag string) *hmap.Heightmap
	Tags() []string
}

// Node is one vertex of a graph.
type Node struct {
	ID       string
	Type     string
	Category string
	Caption  string
	GraphID  string

	Attrs  *attr.Map
	Config *config.GraphConfig

	State State
	// LastDuration is the wall time of the last compute.
	LastDuration time.Duration

	// Broadcast is nil until the node joins a managed graph.
	Broadcast Broadcaster
	// OnDetach runs when the node is removed from its graph.
	OnDetach func(n *Node)
	// OnTags runs when the broadcast tag set changes and reports whether
	// the node's output selection changed.
	OnTags func(n *Node, tags []string) bool
	// OnBroadcast reports whether the node consumes a republished tag.
	OnBroadcast func(n *Node, tag string) bool

	inputs    []*Port
	outputs   []*Port
	compute   ComputeFunc
	resolver  Resolver
	observers []*observerEntry
	nextObs   int
	logger    *slog.Logger
}

// New returns an empty node of the given type bound to cfg.
func New(typ, category string, cfg *config.GraphConfig, logger *slog.Logger) *Node {
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{
		Type:     typ,
		Category: category,
		Caption:  typ,
		Attrs:    attr.NewMap(),
		Config:   cfg,
		logger:   logger,
	}
}

// Logger returns the node's logger.
func (n *Node) Logger() *slog.Logger {
	return n.logger.With("node", n.ID)
}

// SetLogger replaces the node's logger.
func (n *Node) SetLogger(l *slog.Logger) {
	if l != nil {
		n.logger = l
	}
}

// SetCompute installs the compute function.
func (n *Node) SetCompute(fn ComputeFunc) { n.compute = fn }

// SetResolver installs the input lookup. The graph calls this on insertion.
func (n *Node) SetResolver(r Resolver) { n.resolver = r }

// AddAttr registers an attribute under key.
func (n *Node) AddAttr(key string, a attr.Attribute) attr.Attribute {
	return n.Attrs.Add(key, a)
}

// AddPort declares a port. Output ports get a buffer allocated from the
// node's GraphConfig. Port names are unique per direction.
func (n *Node) AddPort(dir Direction, name string, kind DataKind) *Port {
	if _, ok := n.Port(dir, name); ok {
		panic(fmt.Sprintf("node %s: duplicate %s port %q", n.Type, dir, name))
	}
	p := &Port{Name: name, Direction: dir, Kind: kind}
	if dir == In {
		p.Index = len(n.inputs)
		n.inputs = append(n.inputs, p)
	} else {
		p.Index = len(n.outputs)
		p.value = newBuffer(kind, n.Config)
		n.outputs = append(n.outputs, p)
	}
	return p
}

// Ports returns the ports of one direction in declaration order.
func (n *Node) Ports(dir Direction) []*Port {
	if dir == In {
		return n.inputs
	}
	return n.outputs
}

// Port looks a port up by direction and name.
func (n *Node) Port(dir Direction, name string) (*Port, bool) {
	for _, p := range n.Ports(dir) {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// PortAt returns the port at index i of one direction.
func (n *Node) PortAt(dir Direction, i int) (*Port, bool) {
	ps := n.Ports(dir)
	if i < 0 || i >= len(ps) {
		return nil, false
	}
	return ps[i], true
}

// Output returns the raw value of output port name, or nil.
func (n *Node) Output(name string) any {
	p, ok := n.Port(Out, name)
	if !ok {
		return nil
	}
	return p.value
}

// SetValue replaces the buffer of output port name. A nil value means the
// port currently carries no data.
func (n *Node) SetValue(name string, v any) error {
	p, ok := n.Port(Out, name)
	if !ok {
		return fmt.Errorf("node %s: no output port %q", n.ID, name)
	}
	p.value = v
	return nil
}

// input resolves the value feeding input port name.
func (n *Node) input(name string) any {
	if _, ok := n.Port(In, name); !ok {
		n.Logger().Debug("unknown input port", "port", name)
		return nil
	}
	if n.resolver == nil {
		return nil
	}
	return n.resolver(name)
}

// Input returns the value feeding input port name as T, or the zero T when
// the port is unconnected, its source is unavailable or carries another
// type.
func Input[T any](n *Node, name string) T {
	var zero T
	v := n.input(name)
	if v == nil {
		return zero
	}
	t, ok := v.(T)
	if !ok {
		n.Logger().Debug("input has unexpected type", "port", name, "type", fmt.Sprintf("%T", v))
		return zero
	}
	return t
}

// Value returns the buffer of output port name as T without copying, or
// the zero T when the port is absent, empty or of another type.
func Value[T any](n *Node, name string) T {
	var zero T
	t, ok := n.Output(name).(T)
	if !ok {
		return zero
	}
	return t
}

// EnsureHeightmap returns the heightmap buffer of output port name,
// allocating a fresh one when the port is empty and resizing it when the
// graph layout changed.
func (n *Node) EnsureHeightmap(name string) (*hmap.Heightmap, error) {
	p, ok := n.Port(Out, name)
	if !ok || p.Kind != Heightmap {
		return nil, fmt.Errorf("node %s: no heightmap output %q", n.ID, name)
	}
	h, _ := p.value.(*hmap.Heightmap)
	switch {
	case h == nil:
		h = n.Config.NewHeightmap()
		p.value = h
	case !n.Config.Fits(h):
		h.SetSto(n.Config.Shape, n.Config.Tiling, n.Config.Overlap)
	}
	return h, nil
}

// EnsureRGBA is EnsureHeightmap for texture outputs.
func (n *Node) EnsureRGBA(name string) (*hmap.HeightmapRGBA, error) {
	p, ok := n.Port(Out, name)
	if !ok || p.Kind != HeightmapRGBA {
		return nil, fmt.Errorf("node %s: no texture output %q", n.ID, name)
	}
	c, _ := p.value.(*hmap.HeightmapRGBA)
	switch {
	case c == nil:
		c = n.Config.NewRGBA()
		p.value = c
	case !n.Config.Fits(c.R):
		c.SetSto(n.Config.Shape, n.Config.Tiling, n.Config.Overlap)
	}
	return c, nil
}

// Compute runs the compute function, notifying observers before and after.
// The node ends Fresh on success and Stale on failure.
func (n *Node) Compute() error {
	n.State = Computing
	n.notifyStarted()
	start := time.Now()

	var err error
	if n.compute != nil {
		err = n.compute(n)
	}

	n.LastDuration = time.Since(start)
	if err != nil {
		n.State = Stale
		err = fmt.Errorf("compute %s: %w", n.ID, err)
	} else {
		n.State = Fresh
	}
	n.notifyFinished(err)
	return err
}

// Reseed draws a new value for every seed attribute.
func (n *Node) Reseed(next func() uint32) int {
	return n.Attrs.Reseed(next)
}

// Detach runs the node's removal hook.
func (n *Node) Detach() {
	if n.OnDetach != nil {
		n.OnDetach(n)
	}
}

// TagsChanged forwards a broadcast tag set change to the node and reports
// whether it needs recomputing.
func (n *Node) TagsChanged(tags []string) bool {
	if n.OnTags == nil {
		return false
	}
	return n.OnTags(n, tags)
}

// Consumes reports whether the node reads broadcast tag.
func (n *Node) Consumes(tag string) bool {
	return n.OnBroadcast != nil && n.OnBroadcast(n, tag)
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.ID, n.Type)
}
