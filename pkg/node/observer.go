package node

// Observer is notified around every compute of a node.
type Observer interface {
	ComputeStarted(n *Node)
	ComputeFinished(n *Node, err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are
// skipped.
type ObserverFuncs struct {
	Started  func(n *Node)
	Finished func(n *Node, err error)
}

func (o ObserverFuncs) ComputeStarted(n *Node) {
	if o.Started != nil {
		o.Started(n)
	}
}

func (o ObserverFuncs) ComputeFinished(n *Node, err error) {
	if o.Finished != nil {
		o.Finished(n, err)
	}
}

type observerEntry struct {
	id  int
	obs Observer
}

// Observe registers o and returns a function that unregisters it.
func (n *Node) Observe(o Observer) (cancel func()) {
	id := n.nextObs
	n.nextObs++
	n.observers = append(n.observers, &observerEntry{id: id, obs: o})
	return func() {
		for k, e := range n.observers {
			if e.id == id {
				n.observers = append(n.observers[:k], n.observers[k+1:]...)
				return
			}
		}
	}
}

func (n *Node) notifyStarted() {
	for _, e := range n.observers {
		e.obs.ComputeStarted(n)
	}
}

func (n *Node) notifyFinished(err error) {
	for _, e := range n.observers {
		e.obs.ComputeFinished(n, err)
	}
}
