package graph

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/loam/pkg/config"
)

type nodeRecord struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Caption  string          `json:"caption"`
	Settings json.RawMessage `json:"settings"`
}

type graphRecord struct {
	ID      string             `json:"id"`
	IDCount int                `json:"id_count"`
	Config  config.GraphConfig `json:"config"`
	Nodes   []nodeRecord       `json:"nodes"`
	Links   []Link             `json:"links"`
}

// MarshalJSON writes the graph's engine-owned state: layout, nodes with
// their attribute settings, and links, all in insertion order.
func (g *Graph) MarshalJSON() ([]byte, error) {
	rec := graphRecord{
		ID:      g.ID,
		IDCount: g.idCount,
		Config:  *g.Config,
		Nodes:   make([]nodeRecord, 0, len(g.ids)),
		Links:   g.Links(),
	}
	if rec.Links == nil {
		rec.Links = []Link{}
	}
	for _, id := range g.ids {
		n := g.nodes[id]
		settings, err := n.Attrs.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode node %s: %w", id, err)
		}
		rec.Nodes = append(rec.Nodes, nodeRecord{
			ID:       id,
			Type:     n.Type,
			Caption:  n.Caption,
			Settings: settings,
		})
	}
	return json.Marshal(rec)
}

// Decode replaces the graph's content with a record written by
// MarshalJSON. An unreadable document is an error and leaves the graph
// untouched. Within a readable document, nodes of unknown type, attribute
// fields that fail to convert and links that no longer validate are logged
// and skipped.
func (g *Graph) Decode(data []byte) error {
	var rec graphRecord
	rec.Config = *g.Config
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decode graph %s: %w", g.ID, err)
	}
	if err := rec.Config.Validate(); err != nil {
		return fmt.Errorf("decode graph %s: %w", g.ID, err)
	}

	g.Clear()
	if rec.ID != "" && rec.ID != g.ID {
		g.logger.Debug("graph record id differs", "record", rec.ID)
	}
	rec.Config.KeepRuntime(*g.Config)
	*g.Config = rec.Config

	for _, nr := range rec.Nodes {
		if err := g.AddNodeWithID(nr.Type, nr.ID); err != nil {
			g.logger.Warn("skipping node", "node", nr.ID, "type", nr.Type, "err", err)
			continue
		}
		n := g.nodes[nr.ID]
		if nr.Caption != "" {
			n.Caption = nr.Caption
		}
		if len(nr.Settings) > 0 {
			n.Attrs.Decode(nr.Settings, n.Logger())
		}
	}
	for _, l := range rec.Links {
		if err := g.AddLink(l); err != nil {
			g.logger.Warn("skipping link", "err", err)
		}
	}
	if rec.IDCount > g.idCount {
		g.idCount = rec.IDCount
	}
	return nil
}
