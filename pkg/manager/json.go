package manager

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/chazu/loam/pkg/config"
	"github.com/chazu/loam/pkg/graph"
	"github.com/chazu/loam/pkg/hmap"
)

// Version is written into the info block of saved projects.
const Version = "0.1.0"

type document struct {
	GraphManager managerRecord      `json:"graph_manager"`
	Config       config.GraphConfig `json:"config"`
	Info         infoRecord         `json:"info"`
}

type managerRecord struct {
	ID         string                     `json:"id"`
	IDCount    int                        `json:"id_count"`
	GraphOrder []string                   `json:"graph_order"`
	GraphNodes map[string]json.RawMessage `json:"graph_nodes"`
}

// infoRecord is free-form metadata; it is written but never read back.
type infoRecord struct {
	Version string    `json:"version"`
	SavedAt time.Time `json:"saved_at"`
}

// Encode writes the project document.
func (m *Manager) Encode(w io.Writer) error {
	doc := document{
		GraphManager: managerRecord{
			ID:         m.ID,
			IDCount:    m.idCount,
			GraphOrder: m.GraphOrder(),
			GraphNodes: make(map[string]json.RawMessage, len(m.graphs)),
		},
		Config: m.Config,
		Info:   infoRecord{Version: Version, SavedAt: m.now().UTC()},
	}
	if doc.GraphManager.GraphOrder == nil {
		doc.GraphManager.GraphOrder = []string{}
	}
	for id, g := range m.graphs {
		data, err := g.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode project: %w", err)
		}
		doc.GraphManager.GraphNodes[id] = data
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	return nil
}

// Decode replaces the project with the document read from r. On error the
// project is left unchanged. Graphs present in graph_nodes but missing
// from graph_order are appended in id order.
func (m *Manager) Decode(r io.Reader) error {
	var doc document
	doc.Config = m.Config
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode project: %w", err)
	}
	if err := doc.Config.Validate(); err != nil {
		return fmt.Errorf("decode project: %w", err)
	}
	doc.Config.KeepRuntime(m.Config)
	rec := doc.GraphManager

	order := make([]string, 0, len(rec.GraphNodes))
	for _, id := range rec.GraphOrder {
		if _, ok := rec.GraphNodes[id]; !ok {
			return fmt.Errorf("decode project: ordered graph %s: %w", id, ErrGraphNotFound)
		}
		if !slices.Contains(order, id) {
			order = append(order, id)
		}
	}
	var extra []string
	for id := range rec.GraphNodes {
		if !slices.Contains(order, id) {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	// build the new graphs aside so a bad record leaves m untouched
	prevConfig := m.Config
	m.Config = doc.Config
	graphs := make(map[string]*graph.Graph, len(order))
	for _, id := range order {
		g := m.newGraph(id)
		if err := g.Decode(rec.GraphNodes[id]); err != nil {
			m.Config = prevConfig
			return fmt.Errorf("decode project: %w", err)
		}
		graphs[id] = g
	}

	for _, g := range m.Graphs() {
		g.Clear()
	}
	m.mu.Lock()
	m.tags = make(map[string]*hmap.Heightmap)
	m.mu.Unlock()

	if rec.ID != "" {
		m.ID = rec.ID
	}
	m.graphs = graphs
	m.order = order
	m.idCount = max(rec.IDCount, len(order))
	m.refreshTags()
	m.logger.Debug("project decoded", "project", m.ID, "graphs", len(order))
	return nil
}

// Save writes the project document to path.
func (m *Manager) Save(path string) error {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	m.logger.Info("project saved", "path", path)
	return nil
}

// Load replaces the project with the document stored at path.
func (m *Manager) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	defer f.Close()
	if err := m.Decode(f); err != nil {
		return fmt.Errorf("load project %s: %w", path, err)
	}
	return nil
}
