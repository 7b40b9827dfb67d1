// Package manager holds a project: an ordered set of graphs sharing one
// broadcast registry, and the project document they are saved to.
//
// Graphs are updated in graph order. A Broadcast node publishing a
// heightmap marks the Receive nodes consuming its tag stale only in the
// graphs that come after the publisher, so a project update never loops
// back into an earlier graph.
package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/chazu/loam/pkg/config"
	"github.com/chazu/loam/pkg/graph"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/node"
)

var (
	ErrGraphNotFound  = errors.New("graph not found")
	ErrDuplicateGraph = errors.New("graph id already in use")
	ErrInvalidOrder   = errors.New("graph order must list every graph exactly once")
)

// Manager owns the graphs of a project. Graph structure is not safe for
// concurrent use; the broadcast registry is.
type Manager struct {
	// ID identifies the project.
	ID string
	// Config is the layout given to new graphs.
	Config config.GraphConfig

	factory graph.Factory
	graphs  map[string]*graph.Graph
	order   []string
	idCount int

	mu   sync.RWMutex
	tags map[string]*hmap.Heightmap

	logger *slog.Logger
	now    func() time.Time
}

var _ node.Broadcaster = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger. Graphs inherit it.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces the clock used for the saved_at stamp.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New returns an empty project with a fresh id.
func New(factory graph.Factory, cfg config.GraphConfig, opts ...Option) *Manager {
	m := &Manager{
		ID:      uuid.NewString(),
		Config:  cfg,
		factory: factory,
		graphs:  make(map[string]*graph.Graph),
		tags:    make(map[string]*hmap.Heightmap),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Logger returns the manager's logger.
func (m *Manager) Logger() *slog.Logger { return m.logger }

// IDCount is the counter used to derive the next graph id.
func (m *Manager) IDCount() int { return m.idCount }

// Len returns the number of graphs.
func (m *Manager) Len() int { return len(m.graphs) }

// Graph looks a graph up by id.
func (m *Manager) Graph(id string) (*graph.Graph, bool) {
	g, ok := m.graphs[id]
	return g, ok
}

// Graphs returns the graphs in graph order.
func (m *Manager) Graphs() []*graph.Graph {
	return lo.Map(m.order, func(id string, _ int) *graph.Graph { return m.graphs[id] })
}

// GraphOrder returns a copy of the graph order.
func (m *Manager) GraphOrder() []string {
	return slices.Clone(m.order)
}

// SetGraphOrder reorders the graphs. ids must be a permutation of the
// current graph ids.
func (m *Manager) SetGraphOrder(ids []string) error {
	if len(ids) != len(m.order) || len(lo.Uniq(ids)) != len(ids) {
		return fmt.Errorf("set graph order %v: %w", ids, ErrInvalidOrder)
	}
	for _, id := range ids {
		if _, ok := m.graphs[id]; !ok {
			return fmt.Errorf("set graph order: %s: %w", id, ErrGraphNotFound)
		}
	}
	m.order = slices.Clone(ids)
	return nil
}

// ---------------------------------------------------------------------------
// Graphs
// ---------------------------------------------------------------------------

// AddGraph creates an empty graph with the manager's layout.
func (m *Manager) AddGraph(id string) (*graph.Graph, error) {
	if id == "" {
		return nil, errors.New("add graph: empty id")
	}
	if _, ok := m.graphs[id]; ok {
		return nil, fmt.Errorf("add graph %s: %w", id, ErrDuplicateGraph)
	}
	g := m.newGraph(id)
	m.graphs[id] = g
	m.order = append(m.order, id)
	m.idCount++
	m.logger.Debug("graph added", "graph", id)
	return g, nil
}

func (m *Manager) newGraph(id string) *graph.Graph {
	cfg := m.Config
	return graph.New(id, &cfg, m.factory, graph.WithLogger(m.logger), graph.WithBroadcaster(m))
}

// NewGraph adds a graph with an id derived from the id counter.
func (m *Manager) NewGraph() (*graph.Graph, error) {
	id := fmt.Sprintf("graph_%d", m.idCount)
	for m.graphs[id] != nil {
		m.idCount++
		id = fmt.Sprintf("graph_%d", m.idCount)
	}
	return m.AddGraph(id)
}

// RemoveGraph deletes a graph. Its Broadcast nodes withdraw their tags and
// every remaining Receive node is refreshed.
func (m *Manager) RemoveGraph(id string) error {
	g, ok := m.graphs[id]
	if !ok {
		return fmt.Errorf("remove graph %s: %w", id, ErrGraphNotFound)
	}
	g.Clear()
	delete(m.graphs, id)
	m.order = lo.Without(m.order, id)
	m.logger.Debug("graph removed", "graph", id)
	m.refreshTags()
	return nil
}

// SetConfig changes the layout of the project and of every graph.
func (m *Manager) SetConfig(cfg config.GraphConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("set config: %w", err)
	}
	for _, g := range m.Graphs() {
		if err := g.SetConfig(cfg); err != nil {
			return err
		}
	}
	cfg.KeepRuntime(m.Config)
	m.Config = cfg
	return nil
}

// ---------------------------------------------------------------------------
// Updates
// ---------------------------------------------------------------------------

// Update brings every graph up to date, in graph order. A failing graph
// does not stop the others; all failures are joined.
func (m *Manager) Update() error {
	var errs []error
	for _, g := range m.Graphs() {
		if err := g.Update(); err != nil {
			errs = append(errs, fmt.Errorf("graph %s: %w", g.ID, err))
		}
	}
	return errors.Join(errs...)
}

// ForceUpdate recomputes every node of every graph.
func (m *Manager) ForceUpdate() error {
	var errs []error
	for _, g := range m.Graphs() {
		if err := g.ForceUpdate(); err != nil {
			errs = append(errs, fmt.Errorf("graph %s: %w", g.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Reseed draws new values for every seed attribute of every graph and
// returns how many changed.
func (m *Manager) Reseed(next func() uint32) int {
	total := 0
	for _, g := range m.Graphs() {
		total += g.Reseed(next)
	}
	return total
}
