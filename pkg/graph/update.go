package graph

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/loam/pkg/node"
)

// TopologicalOrder returns every node id with dependencies before their
// dependents. The order is cached until the next structural change.
// Independent nodes keep their insertion order.
func (g *Graph) TopologicalOrder() []string {
	if g.order != nil {
		return g.order
	}
	indeg := make(map[string]int, len(g.nodes))
	for _, l := range g.links {
		indeg[l.ToNode]++
	}
	var queue []string
	for _, id := range g.ids {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}
	order := make([]string, 0, len(g.ids))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, l := range g.links {
			if l.FromNode != id {
				continue
			}
			indeg[l.ToNode]--
			if indeg[l.ToNode] == 0 {
				queue = append(queue, l.ToNode)
			}
		}
	}
	// Links are admitted only when acyclic, so every node is ordered.
	g.order = order
	return order
}

// Update recomputes every stale node in topological order. A node whose
// upstream is still stale after its turn (because that upstream failed) is
// skipped and stays stale. Compute errors are collected and joined.
func (g *Graph) Update() error {
	return g.run(nil)
}

// ForceUpdate marks every node stale and recomputes the whole graph.
func (g *Graph) ForceUpdate() error {
	for _, n := range g.nodes {
		n.State = node.Stale
	}
	return g.run(nil)
}

// UpdateNode recomputes node id and everything downstream of it, after
// bringing any stale ancestor up to date.
func (g *Graph) UpdateNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("update %q: %w", id, ErrNodeNotFound)
	}
	g.MarkStale(id)
	scope := g.closure(id, g.children)
	for k := range g.closure(id, g.parents) {
		scope[k] = struct{}{}
	}
	return g.run(scope)
}

// run computes the stale nodes of scope (all nodes when scope is nil).
func (g *Graph) run(scope map[string]struct{}) error {
	g.notifyUpdateStarted()
	start := time.Now()

	var errs []error
	computed := 0
	for _, id := range g.TopologicalOrder() {
		if scope != nil {
			if _, ok := scope[id]; !ok {
				continue
			}
		}
		n := g.nodes[id]
		if n.State == node.Fresh {
			continue
		}
		if up, blocked := g.staleParent(id); blocked {
			g.logger.Debug("skipping node with stale upstream", "node", id, "upstream", up)
			continue
		}
		if err := n.Compute(); err != nil {
			g.logger.Warn("compute failed", "node", id, "err", err)
			errs = append(errs, err)
			continue
		}
		computed++
	}

	err := errors.Join(errs...)
	g.logger.Debug("update finished", "computed", computed, "failed", len(errs), "elapsed", time.Since(start))
	g.notifyUpdateFinished(err)
	return err
}

func (g *Graph) staleParent(id string) (string, bool) {
	for _, p := range g.parents(id) {
		if g.nodes[p].State != node.Fresh {
			return p, true
		}
	}
	return "", false
}
