// Package nodes is the node factory: a registry of node kinds keyed by
// type name, and the built-in terrain nodes registered at startup.
package nodes

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/chazu/loam/pkg/config"
	"github.com/chazu/loam/pkg/graph"
	"github.com/chazu/loam/pkg/node"
)

var (
	// ErrUnknownNodeType is returned by Create for unregistered types.
	ErrUnknownNodeType = errors.New("unknown node type")
	// ErrDuplicateType is returned when a type is registered twice.
	ErrDuplicateType = errors.New("node type already registered")
)

// Kind describes one node type. Setup declares ports and attributes on a
// fresh node; Compute is installed as its compute function.
type Kind struct {
	Type     string
	Category string
	Setup    func(n *node.Node)
	Compute  node.ComputeFunc
}

// Registry maps type names to node kinds. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	kinds  map[string]Kind
	logger *slog.Logger
}

var _ graph.Factory = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{kinds: make(map[string]Kind), logger: logger}
}

// Default returns a registry holding every built-in node kind.
func Default(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	for typ, k := range builtins {
		k.Type = typ
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds k to the registry.
func (r *Registry) Register(k Kind) error {
	if k.Type == "" {
		return errors.New("register: empty node type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.kinds[k.Type]; ok {
		return fmt.Errorf("register %s: %w", k.Type, ErrDuplicateType)
	}
	r.kinds[k.Type] = k
	return nil
}

// Kind returns the registered kind for typ.
func (r *Registry) Kind(typ string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[typ]
	return k, ok
}

// Create builds a node of type typ bound to cfg.
func (r *Registry) Create(typ string, cfg *config.GraphConfig) (*node.Node, error) {
	k, ok := r.Kind(typ)
	if !ok {
		return nil, fmt.Errorf("create %q: %w", typ, ErrUnknownNodeType)
	}
	n := node.New(k.Type, k.Category, cfg, r.logger)
	if k.Setup != nil {
		k.Setup(n)
	}
	n.SetCompute(k.Compute)
	return n, nil
}

// Inventory returns the category of every registered type.
func (r *Registry) Inventory() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.MapValues(r.kinds, func(k Kind, _ string) string { return k.Category })
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	types := lo.Keys(r.kinds)
	r.mu.RUnlock()
	sort.Strings(types)
	return types
}
