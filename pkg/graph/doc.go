// Package graph implements the dependency-tracked DAG of terrain nodes.
//
// A Graph owns its nodes, addressed by string id, and the links between
// their ports. Structural changes are validated before any state is
// touched: a link joining ports of different data kinds, feeding an input
// that is already fed, or closing a cycle is rejected and the graph is left
// unchanged.
//
// Every node carries a freshness state. Adding or removing a link marks the
// destination and everything downstream of it stale; changing an attribute
// marks the owning node and its downstream closure. Update recomputes the
// stale nodes in topological order, synchronously, one node at a time.
// Parallelism lives below this level, inside the tiled heightmap transforms.
package graph
