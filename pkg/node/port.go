package node

import (
	"fmt"

	"github.com/chazu/loam/pkg/config"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
)

// DataKind is the type of value carried by a port. Links may only join
// ports of the same kind.
type DataKind int

const (
	Heightmap DataKind = iota
	HeightmapRGBA
	Array
	Cloud
	Path
	Vector
)

func (k DataKind) String() string {
	switch k {
	case Heightmap:
		return "Heightmap"
	case HeightmapRGBA:
		return "HeightmapRGBA"
	case Array:
		return "Array"
	case Cloud:
		return "Cloud"
	case Path:
		return "Path"
	case Vector:
		return "Vector"
	default:
		return fmt.Sprintf("DataKind(%d)", int(k))
	}
}

// Direction tells inputs from outputs.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// Port is a named, typed connection point. Index is the position of the
// port among the node's ports of the same direction.
type Port struct {
	Name      string
	Direction Direction
	Kind      DataKind
	Index     int

	// value is the buffer owned by an output port; always nil on inputs.
	value any
}

// newBuffer allocates the output buffer for kind k under cfg.
func newBuffer(k DataKind, cfg *config.GraphConfig) any {
	switch k {
	case Heightmap:
		return cfg.NewHeightmap()
	case HeightmapRGBA:
		return cfg.NewRGBA()
	case Array:
		return hmap.NewArray(cfg.Shape)
	case Cloud:
		return &geom.Cloud{}
	case Path:
		return &geom.Path{}
	case Vector:
		v := []float64{}
		return &v
	}
	return nil
}
