package manager

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/chazu/loam/pkg/hmap"
)

// Publish registers h under tag. A new tag refreshes every Receive node;
// graphs after the publisher then recompute the nodes consuming tag.
func (m *Manager) Publish(tag string, h *hmap.Heightmap) {
	m.mu.Lock()
	_, known := m.tags[tag]
	m.tags[tag] = h
	m.mu.Unlock()

	if !known {
		m.logger.Debug("tag published", "tag", tag)
		m.refreshTags()
	}
	m.propagate(tag)
}

// Unpublish withdraws tag.
func (m *Manager) Unpublish(tag string) {
	m.mu.Lock()
	_, known := m.tags[tag]
	delete(m.tags, tag)
	m.mu.Unlock()

	if known {
		m.logger.Debug("tag withdrawn", "tag", tag)
		m.refreshTags()
	}
}

// Lookup returns the heightmap published under tag, or nil.
func (m *Manager) Lookup(tag string) *hmap.Heightmap {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tags[tag]
}

// Tags returns the published tags in sorted order.
func (m *Manager) Tags() []string {
	m.mu.RLock()
	tags := lo.Keys(m.tags)
	m.mu.RUnlock()
	slices.Sort(tags)
	return tags
}

// refreshTags hands the current tag set to every graph.
func (m *Manager) refreshTags() {
	tags := m.Tags()
	for _, g := range m.Graphs() {
		if ids := g.NotifyTags(tags); len(ids) > 0 {
			m.logger.Debug("receivers refreshed", "graph", g.ID, "nodes", ids)
		}
	}
}

// propagate marks the consumers of tag stale in the graphs that follow the
// publishing graph. Tags from an unknown graph reach every graph.
func (m *Manager) propagate(tag string) {
	from, _, _ := strings.Cut(tag, "/")
	start := slices.Index(m.order, from) + 1
	for _, id := range m.order[start:] {
		m.graphs[id].NotifyBroadcast(tag)
	}
}
