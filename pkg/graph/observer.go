package graph

import "github.com/chazu/loam/pkg/node"

// Observer receives the lifecycle notifications of a graph. A presentation
// layer or batch driver subscribes with Graph.Observe; the graph itself
// never depends on its observers.
type Observer interface {
	ComputeStarted(g *Graph, n *node.Node)
	ComputeFinished(g *Graph, n *node.Node, err error)
	UpdateStarted(g *Graph)
	UpdateFinished(g *Graph, err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnComputeStarted  func(g *Graph, n *node.Node)
	OnComputeFinished func(g *Graph, n *node.Node, err error)
	OnUpdateStarted   func(g *Graph)
	OnUpdateFinished  func(g *Graph, err error)
}

func (o ObserverFuncs) ComputeStarted(g *Graph, n *node.Node) {
	if o.OnComputeStarted != nil {
		o.OnComputeStarted(g, n)
	}
}

func (o ObserverFuncs) ComputeFinished(g *Graph, n *node.Node, err error) {
	if o.OnComputeFinished != nil {
		o.OnComputeFinished(g, n, err)
	}
}

func (o ObserverFuncs) UpdateStarted(g *Graph) {
	if o.OnUpdateStarted != nil {
		o.OnUpdateStarted(g)
	}
}

func (o ObserverFuncs) UpdateFinished(g *Graph, err error) {
	if o.OnUpdateFinished != nil {
		o.OnUpdateFinished(g, err)
	}
}

var _ Observer = ObserverFuncs{}

// Observe registers o and returns a function that unregisters it.
func (g *Graph) Observe(o Observer) (cancel func()) {
	id := g.nextObs
	g.nextObs++
	g.observers = append(g.observers, graphObserver{id: id, obs: o})
	return func() {
		for k, e := range g.observers {
			if e.id == id {
				g.observers = append(g.observers[:k], g.observers[k+1:]...)
				return
			}
		}
	}
}

type graphObserver struct {
	id  int
	obs Observer
}

// nodeRelay forwards the compute notifications of one node to the graph's
// observers.
type nodeRelay struct{ g *Graph }

func (r nodeRelay) ComputeStarted(n *node.Node) {
	for _, e := range r.g.observers {
		e.obs.ComputeStarted(r.g, n)
	}
}

func (r nodeRelay) ComputeFinished(n *node.Node, err error) {
	for _, e := range r.g.observers {
		e.obs.ComputeFinished(r.g, n, err)
	}
}

func (g *Graph) notifyUpdateStarted() {
	for _, e := range g.observers {
		e.obs.UpdateStarted(g)
	}
}

func (g *Graph) notifyUpdateFinished(err error) {
	for _, e := range g.observers {
		e.obs.UpdateFinished(g, err)
	}
}
