package hmap

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel/gpu"
	"golang.org/x/sync/errgroup"
)

// TransformMode selects how a kernel is applied across a tiled field.
type TransformMode int

const (
	// SingleArray flattens the field into one buffer and ignores tiling.
	SingleArray TransformMode = iota
	// Distributed evaluates tiles independently on a worker pool.
	Distributed
	// GPU submits per-tile jobs to the accelerator device queue.
	GPU
)

func (m TransformMode) String() string {
	switch m {
	case SingleArray:
		return "single_array"
	case Distributed:
		return "distributed"
	case GPU:
		return "gpu"
	default:
		return fmt.Sprintf("TransformMode(%d)", int(m))
	}
}

// ParseTransformMode converts a mode name back into a TransformMode.
func ParseTransformMode(s string) (TransformMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single_array", "single":
		return SingleArray, nil
	case "distributed":
		return Distributed, nil
	case "gpu":
		return GPU, nil
	}
	return 0, fmt.Errorf("unknown transform mode %q", s)
}

// Executor carries the runtime resources used by Fill and Transform.
// A nil *Executor is valid and uses one worker per CPU and no device.
type Executor struct {
	Workers int
	Device  gpu.Device
	Logger  *slog.Logger
}

func (ex *Executor) workers() int {
	if ex == nil || ex.Workers <= 0 {
		return runtime.NumCPU()
	}
	return ex.Workers
}

func (ex *Executor) device() gpu.Device {
	if ex == nil {
		return nil
	}
	return ex.Device
}

func (ex *Executor) logger() *slog.Logger {
	if ex == nil || ex.Logger == nil {
		return slog.Default()
	}
	return ex.Logger
}

// Generator produces the values of one tile. shape is the tile's pixel
// shape, bbox its extent in the [0,1]x[0,1] domain; dx, dy and ctrl are the
// matching tiles of the optional auxiliary fields and may be nil.
type Generator func(shape geom.Vec2[int], bbox geom.Vec4, dx, dy, ctrl *Array) (*Array, error)

// Kernel transforms arrays sharing one bbox. out holds the arrays being
// written; in holds read-only inputs, with nil entries for absent optional
// inputs.
type Kernel func(out, in []*Array, bbox geom.Vec4) error

// Fill evaluates gen once per tile of out, running tiles on the worker pool,
// then stitches the overlap. Auxiliary fields may be nil and are converted
// to out's layout when needed.
func Fill(ex *Executor, out *Heightmap, dx, dy, ctrl *Heightmap, gen Generator) error {
	dx, dy, ctrl = Conform(dx, out), Conform(dy, out), Conform(ctrl, out)

	var g errgroup.Group
	g.SetLimit(ex.workers())
	for k, t := range out.Tiles {
		k, t := k, t
		g.Go(func() error {
			a, err := gen(t.Shape, t.BBox, tileOf(dx, k), tileOf(dy, k), tileOf(ctrl, k))
			if err != nil {
				return fmt.Errorf("fill tile %d: %w", k, err)
			}
			if a.Shape != t.Shape {
				return fmt.Errorf("fill tile %d: generator returned shape %v, want %v", k, a.Shape, t.Shape)
			}
			t.Array.CopyFrom(a)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	out.SmoothOverlapBuffers()
	return nil
}

// Transform applies k across outs and ins according to mode. Every output
// must share the layout of outs[0]; inputs are converted to it. Inputs are
// never written. Tile-local results are stitched before Transform returns.
func Transform(ex *Executor, mode TransformMode, outs, ins []*Heightmap, k Kernel) error {
	if len(outs) == 0 || outs[0] == nil {
		return errors.New("transform: no output field")
	}
	ref := outs[0]
	for i, o := range outs[1:] {
		if o == nil || !o.SameStorage(ref) {
			return fmt.Errorf("transform: output %d layout differs from output 0", i+1)
		}
	}
	conformed := make([]*Heightmap, len(ins))
	for i, in := range ins {
		conformed[i] = Conform(in, ref)
	}

	switch mode {
	case SingleArray:
		return transformSingle(outs, conformed, k)
	case GPU:
		dev := ex.device()
		if dev == nil {
			ex.logger().Debug("no gpu device, falling back to distributed transform")
			return transformDistributed(ex, outs, conformed, k)
		}
		return transformDevice(dev, outs, conformed, k)
	default:
		return transformDistributed(ex, outs, conformed, k)
	}
}

func transformSingle(outs, ins []*Heightmap, k Kernel) error {
	oa := make([]*Array, len(outs))
	for i, o := range outs {
		oa[i] = o.ToArray()
	}
	ia := make([]*Array, len(ins))
	for i, in := range ins {
		if in != nil {
			ia[i] = in.ToArray()
		}
	}
	if err := k(oa, ia, geom.UnitSquare); err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	for i, o := range outs {
		o.FromArray(oa[i])
	}
	return nil
}

func tileArrays(outs, ins []*Heightmap, k int) ([]*Array, []*Array) {
	oa := make([]*Array, len(outs))
	for i, o := range outs {
		oa[i] = &o.Tiles[k].Array
	}
	ia := make([]*Array, len(ins))
	for i, in := range ins {
		ia[i] = tileOf(in, k)
	}
	return oa, ia
}

func transformDistributed(ex *Executor, outs, ins []*Heightmap, k Kernel) error {
	var g errgroup.Group
	g.SetLimit(ex.workers())
	for n, t := range outs[0].Tiles {
		n, bbox := n, t.BBox
		g.Go(func() error {
			oa, ia := tileArrays(outs, ins, n)
			if err := k(oa, ia, bbox); err != nil {
				return fmt.Errorf("transform tile %d: %w", n, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, o := range outs {
		o.SmoothOverlapBuffers()
	}
	return nil
}

func transformDevice(dev gpu.Device, outs, ins []*Heightmap, k Kernel) error {
	jobs := make([]gpu.Job, len(outs[0].Tiles))
	for n, t := range outs[0].Tiles {
		n, bbox := n, t.BBox
		jobs[n] = func() error {
			oa, ia := tileArrays(outs, ins, n)
			if err := k(oa, ia, bbox); err != nil {
				return fmt.Errorf("transform tile %d: %w", n, err)
			}
			return nil
		}
	}
	if err := dev.Run(jobs); err != nil {
		return fmt.Errorf("transform on %s: %w", dev.Name(), err)
	}
	for _, o := range outs {
		o.SmoothOverlapBuffers()
	}
	return nil
}

func tileOf(h *Heightmap, k int) *Array {
	if h == nil {
		return nil
	}
	return &h.Tiles[k].Array
}
