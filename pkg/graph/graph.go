package graph

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/config"
	"github.com/chazu/loam/pkg/node"
)

// Factory builds nodes by type name. The node registry implements it.
type Factory interface {
	Create(typ string, cfg *config.GraphConfig) (*node.Node, error)
}

// Link is a directed edge from an output port to an input port.
type Link struct {
	FromNode string `json:"node_out_id"`
	FromPort string `json:"port_out_id"`
	ToNode   string `json:"node_in_id"`
	ToPort   string `json:"port_in_id"`
}

func (l Link) String() string {
	return fmt.Sprintf("%s/%s -> %s/%s", l.FromNode, l.FromPort, l.ToNode, l.ToPort)
}

// Graph owns a set of nodes and the links between them.
type Graph struct {
	ID     string
	Config *config.GraphConfig

	factory Factory
	nodes   map[string]*node.Node
	ids     []string // insertion order
	links   []Link
	order   []string // cached topological order, nil when invalid
	idCount int

	logger      *slog.Logger
	broadcaster node.Broadcaster
	observers   []graphObserver
	nextObs     int
	cancels     map[string]func()
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the graph's logger. Nodes inherit it.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithBroadcaster installs the cross-graph registry handed to every node.
func WithBroadcaster(b node.Broadcaster) Option {
	return func(g *Graph) { g.broadcaster = b }
}

// New returns an empty graph. cfg is shared by pointer with every node
// created in the graph.
func New(id string, cfg *config.GraphConfig, factory Factory, opts ...Option) *Graph {
	if cfg == nil {
		def := config.DefaultGraphConfig()
		cfg = &def
	}
	g := &Graph{
		ID:      id,
		Config:  cfg,
		factory: factory,
		nodes:   make(map[string]*node.Node),
		logger:  slog.Default(),
		cancels: make(map[string]func()),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("graph", id)
	return g
}

// Logger returns the graph's logger.
func (g *Graph) Logger() *slog.Logger { return g.logger }

// SetBroadcaster installs b on the graph and all of its nodes.
func (g *Graph) SetBroadcaster(b node.Broadcaster) {
	g.broadcaster = b
	for _, n := range g.nodes {
		n.Broadcast = b
	}
}

// IDCount is the counter used to derive the next node id.
func (g *Graph) IDCount() int { return g.idCount }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node looks a node up by id.
func (g *Graph) Node(id string) (*node.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*node.Node {
	return lo.Map(g.ids, func(id string, _ int) *node.Node { return g.nodes[id] })
}

// Links returns a copy of the links in insertion order.
func (g *Graph) Links() []Link {
	return append([]Link(nil), g.links...)
}

// ---------------------------------------------------------------------------
// Nodes
// ---------------------------------------------------------------------------

// AddNode creates a node of type typ through the factory and returns its
// id, derived from the graph's id counter.
func (g *Graph) AddNode(typ string) (string, error) {
	id := fmt.Sprintf("%s#%d", typ, g.idCount)
	for g.nodes[id] != nil {
		g.idCount++
		id = fmt.Sprintf("%s#%d", typ, g.idCount)
	}
	if err := g.AddNodeWithID(typ, id); err != nil {
		return "", err
	}
	return id, nil
}

// AddNodeWithID creates a node of type typ under an explicit id.
func (g *Graph) AddNodeWithID(typ, id string) error {
	if _, ok := g.nodes[id]; ok {
		return fmt.Errorf("add node %q: %w", id, ErrDuplicateID)
	}
	if g.factory == nil {
		return fmt.Errorf("add node %q: graph has no node factory", id)
	}
	n, err := g.factory.Create(typ, g.Config)
	if err != nil {
		return fmt.Errorf("add node %q: %w", id, err)
	}
	n.ID = id
	g.insert(n)
	return nil
}

// Insert adds a node built outside the factory. The node's id must be set
// and unused.
func (g *Graph) Insert(n *node.Node) error {
	if n.ID == "" {
		return fmt.Errorf("insert %s node: empty id", n.Type)
	}
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("insert node %q: %w", n.ID, ErrDuplicateID)
	}
	n.Config = g.Config
	g.insert(n)
	return nil
}

func (g *Graph) insert(n *node.Node) {
	n.GraphID = g.ID
	n.State = node.Stale
	n.Broadcast = g.broadcaster
	n.SetLogger(g.logger)
	n.SetResolver(g.resolver(n.ID))
	g.cancels[n.ID] = n.Observe(nodeRelay{g: g})

	g.nodes[n.ID] = n
	g.ids = append(g.ids, n.ID)
	g.order = nil
	g.bumpIDCount(n.ID)
	g.logger.Debug("node added", "node", n.ID, "type", n.Type)
}

// bumpIDCount keeps the counter ahead of explicit ids of the form
// <type>#<n>.
func (g *Graph) bumpIDCount(id string) {
	k := strings.LastIndexByte(id, '#')
	if k < 0 {
		return
	}
	if v, err := strconv.Atoi(id[k+1:]); err == nil && v >= g.idCount {
		g.idCount = v + 1
	}
}

// RemoveNode deletes a node together with every link touching it. Nodes
// downstream of it become stale.
func (g *Graph) RemoveNode(id string) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("remove node %q: %w", id, ErrNodeNotFound)
	}
	for _, l := range g.links {
		if l.FromNode == id && l.ToNode != id {
			g.MarkStale(l.ToNode)
		}
	}
	g.links = lo.Reject(g.links, func(l Link, _ int) bool {
		return l.FromNode == id || l.ToNode == id
	})

	n.Detach()
	if cancel := g.cancels[id]; cancel != nil {
		cancel()
	}
	n.SetResolver(nil)
	delete(g.cancels, id)
	delete(g.nodes, id)
	g.ids = lo.Without(g.ids, id)
	g.order = nil
	g.logger.Debug("node removed", "node", id)
	return nil
}

// Clear removes every node and link. The id counter is kept.
func (g *Graph) Clear() {
	for _, id := range append([]string(nil), g.ids...) {
		_ = g.RemoveNode(id)
	}
}

// resolver returns the input lookup of node id. A missing link or a
// missing upstream node reads as no data.
func (g *Graph) resolver(id string) node.Resolver {
	return func(port string) any {
		l, ok := g.linkInto(id, port)
		if !ok {
			return nil
		}
		up, ok := g.nodes[l.FromNode]
		if !ok {
			g.logger.Debug("upstream node missing", "node", id, "port", port, "from", l.FromNode)
			return nil
		}
		return up.Output(l.FromPort)
	}
}

// ---------------------------------------------------------------------------
// Links
// ---------------------------------------------------------------------------

func (g *Graph) linkInto(nodeID, port string) (Link, bool) {
	return lo.Find(g.links, func(l Link) bool {
		return l.ToNode == nodeID && l.ToPort == port
	})
}

// checkLink validates l against the current graph without mutating it.
func (g *Graph) checkLink(l Link) error {
	from, ok := g.nodes[l.FromNode]
	if !ok {
		return fmt.Errorf("source %q: %w", l.FromNode, ErrNodeNotFound)
	}
	to, ok := g.nodes[l.ToNode]
	if !ok {
		return fmt.Errorf("destination %q: %w", l.ToNode, ErrNodeNotFound)
	}

	out, ok := from.Port(node.Out, l.FromPort)
	if !ok {
		if _, isIn := from.Port(node.In, l.FromPort); isIn {
			return ErrDirection
		}
		return fmt.Errorf("output %q: %w", l.FromPort, ErrPortNotFound)
	}
	in, ok := to.Port(node.In, l.ToPort)
	if !ok {
		if _, isOut := to.Port(node.Out, l.ToPort); isOut {
			return ErrDirection
		}
		return fmt.Errorf("input %q: %w", l.ToPort, ErrPortNotFound)
	}

	if out.Kind != in.Kind {
		return fmt.Errorf("%s -> %s: %w", out.Kind, in.Kind, ErrKindMismatch)
	}
	if _, fed := g.linkInto(l.ToNode, l.ToPort); fed {
		return ErrInputOccupied
	}
	if l.FromNode == l.ToNode || g.reaches(l.ToNode, l.FromNode) {
		return ErrCycle
	}
	return nil
}

// AddLink admits l after validation and marks the destination and its
// downstream closure stale. A rejected link leaves the graph unchanged.
func (g *Graph) AddLink(l Link) error {
	if err := g.checkLink(l); err != nil {
		return &LinkError{Link: l, Err: err}
	}
	g.links = append(g.links, l)
	g.order = nil
	g.MarkStale(l.ToNode)
	g.logger.Debug("link added", "link", l.String())
	return nil
}

// RemoveLink deletes l and marks its destination stale.
func (g *Graph) RemoveLink(l Link) error {
	k := lo.IndexOf(g.links, l)
	if k < 0 {
		return &LinkError{Link: l, Err: ErrLinkNotFound}
	}
	g.links = append(g.links[:k], g.links[k+1:]...)
	g.order = nil
	g.MarkStale(l.ToNode)
	g.logger.Debug("link removed", "link", l.String())
	return nil
}

// children returns the distinct direct dependents of id.
func (g *Graph) children(id string) []string {
	var out []string
	for _, l := range g.links {
		if l.FromNode == id {
			out = append(out, l.ToNode)
		}
	}
	return lo.Uniq(out)
}

// parents returns the distinct direct dependencies of id.
func (g *Graph) parents(id string) []string {
	var out []string
	for _, l := range g.links {
		if l.ToNode == id {
			out = append(out, l.FromNode)
		}
	}
	return lo.Uniq(out)
}

// reaches reports whether target is reachable from start along links.
func (g *Graph) reaches(start, target string) bool {
	_, ok := g.closure(start, g.children)[target]
	return ok
}

// closure returns start and every node reachable from it through next.
func (g *Graph) closure(start string, next func(string) []string) map[string]struct{} {
	seen := map[string]struct{}{start: {}}
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range next(id) {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				stack = append(stack, c)
			}
		}
	}
	return seen
}

// Downstream returns the ids reachable from id, excluding id itself, in
// topological order.
func (g *Graph) Downstream(id string) []string {
	set := g.closure(id, g.children)
	return lo.Filter(g.TopologicalOrder(), func(k string, _ int) bool {
		_, ok := set[k]
		return ok && k != id
	})
}

// ---------------------------------------------------------------------------
// Attributes and state
// ---------------------------------------------------------------------------

// MarkStale marks id and its downstream closure stale.
func (g *Graph) MarkStale(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	for k := range g.closure(id, g.children) {
		g.nodes[k].State = node.Stale
	}
}

// SetAttr assigns v to attribute key of node id and marks the node and its
// downstream closure stale. A rejected value leaves the attribute and the
// node states untouched.
func (g *Graph) SetAttr(id, key string, v any) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("set %s.%s: %w", id, key, ErrNodeNotFound)
	}
	a, ok := n.Attrs.Lookup(key)
	if !ok {
		return fmt.Errorf("set %s.%s: no such attribute", id, key)
	}
	if err := attr.Assign(a, v); err != nil {
		return fmt.Errorf("set %s.%s: %w", id, key, err)
	}
	g.MarkStale(id)
	return nil
}

// SetConfig replaces the graph layout in place, keeping the runtime fields, and
// marks every node stale.
func (g *Graph) SetConfig(cfg config.GraphConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("graph %s: %w", g.ID, err)
	}
	cfg.KeepRuntime(*g.Config)
	*g.Config = cfg
	for _, n := range g.nodes {
		n.State = node.Stale
	}
	return nil
}

// Reseed draws new seeds for every node and marks the reseeded nodes stale.
// It returns the number of seed attributes changed.
func (g *Graph) Reseed(next func() uint32) int {
	total := 0
	for _, id := range g.ids {
		if k := g.nodes[id].Reseed(next); k > 0 {
			total += k
			g.MarkStale(id)
		}
	}
	return total
}

// NotifyTags forwards a broadcast tag set change to every node and marks
// those whose selection changed stale. It returns their ids.
func (g *Graph) NotifyTags(tags []string) []string {
	var changed []string
	for _, id := range g.ids {
		if g.nodes[id].TagsChanged(tags) {
			changed = append(changed, id)
			g.MarkStale(id)
		}
	}
	return changed
}

// NotifyBroadcast marks the nodes consuming tag, and their downstream
// closure, stale. It returns the consuming node ids.
func (g *Graph) NotifyBroadcast(tag string) []string {
	var hit []string
	for _, id := range g.ids {
		if g.nodes[id].Consumes(tag) {
			hit = append(hit, id)
			g.MarkStale(id)
		}
	}
	return hit
}
