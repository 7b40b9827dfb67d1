package node

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/config"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func smallConfig() *config.GraphConfig {
	cfg := config.DefaultGraphConfig()
	cfg.Shape = geom.V2(32, 32)
	cfg.Tiling = geom.V2(2, 2)
	cfg.Overlap = 0.5
	return &cfg
}

func newTestNode() *Node {
	n := New("Test", "Debug", smallConfig(), quietLogger())
	n.ID = "Test#0"
	n.AddPort(In, "input", Heightmap)
	n.AddPort(In, "mask", Heightmap)
	n.AddPort(Out, "output", Heightmap)
	n.AddPort(Out, "cloud", Cloud)
	return n
}

func TestAddPort(t *testing.T) {
	n := newTestNode()
	if got := len(n.Ports(In)); got != 2 {
		t.Fatalf("inputs = %d, want 2", got)
	}
	p, ok := n.Port(In, "mask")
	if !ok || p.Index != 1 || p.Kind != Heightmap {
		t.Errorf("mask port = %+v", p)
	}
	if Value[*hmap.Heightmap](n, "output") == nil {
		t.Error("heightmap output should be allocated")
	}
	if h := Value[*hmap.Heightmap](n, "output"); !n.Config.Fits(h) {
		t.Errorf("output layout %v does not match config", h)
	}
	if Value[*geom.Cloud](n, "cloud") == nil {
		t.Error("cloud output should be allocated")
	}
	if Value[*hmap.Heightmap](n, "cloud") != nil {
		t.Error("Value with the wrong type should return nil")
	}
	if p, ok := n.PortAt(Out, 1); !ok || p.Name != "cloud" {
		t.Errorf("PortAt(Out, 1) = %v, %v", p, ok)
	}
	if _, ok := n.PortAt(Out, 5); ok {
		t.Error("PortAt out of range should fail")
	}
}

func TestAddPortDuplicatePanics(t *testing.T) {
	n := newTestNode()
	defer func() {
		if recover() == nil {
			t.Error("duplicate port should panic")
		}
	}()
	n.AddPort(In, "input", Heightmap)
}

func TestInput(t *testing.T) {
	n := newTestNode()
	if Input[*hmap.Heightmap](n, "input") != nil {
		t.Error("input without resolver should be nil")
	}

	src := hmap.New(geom.V2(32, 32), geom.V2(2, 2), 0.5)
	n.SetResolver(func(port string) any {
		switch port {
		case "input":
			return src
		case "mask":
			return &geom.Cloud{}
		}
		return nil
	})
	if got := Input[*hmap.Heightmap](n, "input"); got != src {
		t.Errorf("Input(input) = %v, want the upstream buffer", got)
	}
	if got := Input[*hmap.Heightmap](n, "mask"); got != nil {
		t.Errorf("Input of a mistyped value = %v, want nil", got)
	}
	if got := Input[*hmap.Heightmap](n, "missing"); got != nil {
		t.Errorf("Input of an unknown port = %v, want nil", got)
	}
}

func TestSetValueAndEnsure(t *testing.T) {
	n := newTestNode()
	if err := n.SetValue("output", nil); err != nil {
		t.Fatal(err)
	}
	if Value[*hmap.Heightmap](n, "output") != nil {
		t.Fatal("output should be empty after SetValue(nil)")
	}
	h, err := n.EnsureHeightmap("output")
	if err != nil || h == nil {
		t.Fatalf("EnsureHeightmap() = %v, %v", h, err)
	}
	if Value[*hmap.Heightmap](n, "output") != h {
		t.Error("EnsureHeightmap should install the new buffer")
	}

	n.Config.Shape = geom.V2(16, 16)
	h2, err := n.EnsureHeightmap("output")
	if err != nil {
		t.Fatal(err)
	}
	if h2 != h || h.Shape != geom.V2(16, 16) {
		t.Errorf("buffer not resized in place: %v", h2)
	}

	if _, err := n.EnsureHeightmap("cloud"); err == nil {
		t.Error("EnsureHeightmap on a cloud port should fail")
	}
	if err := n.SetValue("nope", nil); err == nil {
		t.Error("SetValue on an unknown port should fail")
	}
}

func TestComputeNotifiesObservers(t *testing.T) {
	n := newTestNode()
	var events []string
	cancel := n.Observe(ObserverFuncs{
		Started: func(got *Node) {
			if got.State != Computing {
				t.Errorf("state during start = %v", got.State)
			}
			events = append(events, "started")
		},
		Finished: func(_ *Node, err error) {
			events = append(events, "finished")
			if err != nil {
				events = append(events, "error")
			}
		},
	})
	n.SetCompute(func(*Node) error { return nil })

	if err := n.Compute(); err != nil {
		t.Fatal(err)
	}
	if n.State != Fresh {
		t.Errorf("state = %v, want fresh", n.State)
	}

	boom := errors.New("boom")
	n.SetCompute(func(*Node) error { return boom })
	if err := n.Compute(); !errors.Is(err, boom) {
		t.Errorf("Compute() error = %v, want wrapping boom", err)
	}
	if n.State != Stale {
		t.Errorf("state after failure = %v, want stale", n.State)
	}

	cancel()
	_ = n.Compute()
	want := []string{"started", "finished", "started", "finished", "error"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for k := range want {
		if events[k] != want[k] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestHooks(t *testing.T) {
	n := newTestNode()
	if n.TagsChanged([]string{"a"}) {
		t.Error("node without hook should not report a change")
	}
	var detached bool
	n.OnDetach = func(*Node) { detached = true }
	n.OnTags = func(_ *Node, tags []string) bool { return len(tags) > 0 }
	n.Detach()
	if !detached {
		t.Error("OnDetach not called")
	}
	if !n.TagsChanged([]string{"a"}) {
		t.Error("OnTags result not forwarded")
	}
	if n.Consumes("a") {
		t.Error("node without broadcast hook should not consume tags")
	}
	n.OnBroadcast = func(_ *Node, tag string) bool { return tag == "a" }
	if !n.Consumes("a") || n.Consumes("b") {
		t.Error("OnBroadcast result not forwarded")
	}
}

func TestReseed(t *testing.T) {
	n := newTestNode()
	n.AddAttr("seed", attr.NewSeed(1))
	n.AddAttr("other", attr.NewSeed(2))
	if got := n.Reseed(func() uint32 { return 99 }); got != 2 {
		t.Errorf("Reseed() = %d, want 2", got)
	}
	if n.Attrs.Seed("other") != 99 {
		t.Error("seed not updated")
	}
}

// ramp fills h with x + y in domain coordinates.
func ramp(h *hmap.Heightmap) {
	for _, tile := range h.Tiles {
		for j := 0; j < tile.Shape.Y; j++ {
			for i := 0; i < tile.Shape.X; i++ {
				x := hmap.Coord(i, tile.Shape.X, tile.BBox.A, tile.BBox.B)
				y := hmap.Coord(j, tile.Shape.Y, tile.BBox.C, tile.BBox.D)
				tile.Set(i, j, float32(x+y))
			}
		}
	}
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestPostProcessDisabledIsIdentity(t *testing.T) {
	n := newTestNode()
	n.AddPostProcess()
	h := n.Config.NewHeightmap()
	ramp(h)
	ref := h.Clone()
	if err := PostProcess(n, h); err != nil {
		t.Fatal(err)
	}
	a, b := h.ToArray(), ref.ToArray()
	for k := range a.Vector {
		if a.Vector[k] != b.Vector[k] {
			t.Fatal("disabled post-processing changed the field")
		}
	}
}

func TestPostProcessInverseThenRemap(t *testing.T) {
	n := newTestNode()
	n.AddPostProcess()
	h := n.Config.NewHeightmap()
	ramp(h)
	if err := attr.Assign(attr.MustGet[*attr.Bool](n.Attrs, PostInverse), true); err != nil {
		t.Fatal(err)
	}
	remap := attr.MustGet[*attr.Range](n.Attrs, PostRemap)
	remap.Set(0.25, 1.25)
	remap.SetActive(true)

	if err := PostProcess(n, h); err != nil {
		t.Fatal(err)
	}
	if !approx(h.Min(), 0.25) || !approx(h.Max(), 1.25) {
		t.Errorf("range = [%g, %g], want [0.25, 1.25]", h.Min(), h.Max())
	}
	// the origin was the minimum before inversion
	a := h.ToArray()
	if !approx(a.At(0, 0), 1.25) {
		t.Errorf("origin = %g, want 1.25 after inverse", a.At(0, 0))
	}
}

func TestPostProcessGainAndSaturateKeepAmplitude(t *testing.T) {
	n := newTestNode()
	n.AddPostProcess()
	attr.MustGet[*attr.Float](n.Attrs, PostGain).Set(3)
	sat := attr.MustGet[*attr.Range](n.Attrs, PostSaturate)
	sat.Set(0.2, 0.8)
	sat.SetActive(true)

	h := n.Config.NewHeightmap()
	ramp(h)
	lo, hi := h.Min(), h.Max()
	if err := PostProcess(n, h); err != nil {
		t.Fatal(err)
	}
	if !approx(h.Min(), lo) || !approx(h.Max(), hi) {
		t.Errorf("range = [%g, %g], want [%g, %g]", h.Min(), h.Max(), lo, hi)
	}
}

func TestPostProcessSmoothing(t *testing.T) {
	n := newTestNode()
	n.AddPostProcess()
	attr.MustGet[*attr.Float](n.Attrs, PostSmoothingRadius).Set(0.1)

	h := n.Config.NewHeightmap()
	h.Tiles[0].Set(5, 5, 10)
	h.SmoothOverlapBuffers()
	peak := h.Max()
	if err := PostProcess(n, h); err != nil {
		t.Fatal(err)
	}
	if h.Max() >= peak {
		t.Errorf("smoothing kept the peak at %g", h.Max())
	}
	if h.MaxSeam() > 1e-6 {
		t.Errorf("seam after smoothing = %g", h.MaxSeam())
	}
}

func TestPostProcessNil(t *testing.T) {
	if err := PostProcess(newTestNode(), nil); err != nil {
		t.Errorf("PostProcess(nil) = %v", err)
	}
}
