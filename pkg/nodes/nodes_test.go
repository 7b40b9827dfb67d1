package nodes_test

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/config"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/graph"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/node"
	"github.com/chazu/loam/pkg/nodes"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func smallConfig() *config.GraphConfig {
	cfg := config.DefaultGraphConfig()
	cfg.Shape = geom.V2(32, 32)
	cfg.Tiling = geom.V2(2, 2)
	cfg.Overlap = 0.25
	return &cfg
}

func newGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return graph.New("g0", smallConfig(), nodes.Default(discard()), graph.WithLogger(discard()))
}

func add(t *testing.T, g *graph.Graph, typ string) string {
	t.Helper()
	id, err := g.AddNode(typ)
	if err != nil {
		t.Fatalf("AddNode(%s): %v", typ, err)
	}
	return id
}

func link(t *testing.T, g *graph.Graph, from, fromPort, to, toPort string) graph.Link {
	t.Helper()
	l := graph.Link{FromNode: from, FromPort: fromPort, ToNode: to, ToPort: toPort}
	if err := g.AddLink(l); err != nil {
		t.Fatalf("AddLink(%v): %v", l, err)
	}
	return l
}

func set(t *testing.T, g *graph.Graph, id, key string, v any) {
	t.Helper()
	if err := g.SetAttr(id, key, v); err != nil {
		t.Fatalf("SetAttr(%s, %s): %v", id, key, err)
	}
}

func output(t *testing.T, g *graph.Graph, id string) *hmap.Heightmap {
	t.Helper()
	n, ok := g.Node(id)
	if !ok {
		t.Fatalf("node %s missing", id)
	}
	return node.Value[*hmap.Heightmap](n, "output")
}

func update(t *testing.T, g *graph.Graph) {
	t.Helper()
	if err := g.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func equalArrays(a, b *hmap.Array) bool {
	return a.Shape == b.Shape && slices.Equal(a.Vector, b.Vector)
}

func maxDiff(a, b *hmap.Array) float64 {
	var d float64
	for k := range a.Vector {
		d = math.Max(d, math.Abs(float64(a.Vector[k]-b.Vector[k])))
	}
	return d
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestDefaultRegistry(t *testing.T) {
	r := nodes.Default(discard())
	types := r.Types()
	if !slices.IsSorted(types) {
		t.Errorf("Types() not sorted: %v", types)
	}
	want := []string{
		"Noise", "NoiseFbm", "WhiteNoise", "Constant", "SdfShape", "Blend", "Warp",
		"Clamp", "Gain", "Remap", "Inverse", "Smooth", "Thermal", "Broadcast", "Receive",
		"ColorizeSolid", "ColorizeGradient", "CloudRandom", "CloudToHeightmap",
		"PathToHeightmap", "ExportHeightmap", "ExportTexture", "ExportMesh", "ImportHeightmap",
	}
	for _, typ := range want {
		if !slices.Contains(types, typ) {
			t.Errorf("built-in %s not registered", typ)
		}
	}
	inv := r.Inventory()
	if inv["Noise"] != "Primitive/Coherent" || inv["Receive"] != "Routing" {
		t.Errorf("inventory categories = %v", inv)
	}
}

func TestRegistryErrors(t *testing.T) {
	r := nodes.NewRegistry(discard())
	k := nodes.Kind{Type: "Flat", Category: "Test"}
	if err := r.Register(k); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(k); !errors.Is(err, nodes.ErrDuplicateType) {
		t.Errorf("second Register = %v, want ErrDuplicateType", err)
	}
	if err := r.Register(nodes.Kind{}); err == nil {
		t.Error("empty type should be rejected")
	}
	if _, err := r.Create("Nope", smallConfig()); !errors.Is(err, nodes.ErrUnknownNodeType) {
		t.Errorf("Create(Nope) = %v, want ErrUnknownNodeType", err)
	}
	n, err := r.Create("Flat", smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	if n.Type != "Flat" || n.Category != "Test" {
		t.Errorf("node = %s/%s", n.Type, n.Category)
	}
}

// Every built-in must compute without any input connected.
func TestBuiltinsComputeUnconnected(t *testing.T) {
	r := nodes.Default(discard())
	dir := t.TempDir()
	for _, typ := range r.Types() {
		t.Run(typ, func(t *testing.T) {
			n, err := r.Create(typ, smallConfig())
			if err != nil {
				t.Fatal(err)
			}
			n.ID = typ + "#0"
			// keep export files out of the working directory
			if strings.HasPrefix(typ, "Export") {
				fname := filepath.Join(dir, typ+".png")
				if err := attr.Assign(attr.MustGet[*attr.Filename](n.Attrs, "fname"), fname); err != nil {
					t.Fatal(err)
				}
			}
			if err := n.Compute(); err != nil {
				t.Fatalf("Compute() = %v", err)
			}
			if n.State != node.Fresh {
				t.Errorf("state = %v", n.State)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// End-to-end scenarios
// ---------------------------------------------------------------------------

func TestNoiseIsDeterministic(t *testing.T) {
	cfg := config.DefaultGraphConfig()
	cfg.Shape = geom.V2(256, 256)
	cfg.Tiling = geom.V2(1, 1)
	cfg.Overlap = 0
	g := graph.New("g0", &cfg, nodes.Default(discard()), graph.WithLogger(discard()))
	id := add(t, g, "Noise")
	set(t, g, id, "kw", []float64{2, 2})
	set(t, g, id, "seed", 1)
	update(t, g)

	first := output(t, g, id).ToArray()
	if first.Max() <= first.Min() {
		t.Fatal("noise output is flat")
	}
	if err := g.ForceUpdate(); err != nil {
		t.Fatal(err)
	}
	if second := output(t, g, id).ToArray(); !equalArrays(first, second) {
		t.Error("recomputing with the same seed changed the output")
	}

	set(t, g, id, "seed", 2)
	update(t, g)
	if equalArrays(first, output(t, g, id).ToArray()) {
		t.Error("changing the seed did not change the output")
	}
}

func TestBlendDegradesWithMissingInput(t *testing.T) {
	g := newGraph(t)
	a := add(t, g, "NoiseFbm")
	b := add(t, g, "NoiseFbm")
	set(t, g, a, "seed", 1)
	set(t, g, b, "seed", 2)
	blend := add(t, g, "Blend")
	link(t, g, a, "output", blend, "input1")
	l := link(t, g, b, "output", blend, "input2")
	update(t, g)

	both := output(t, g, blend).ToArray()
	if equalArrays(both, output(t, g, a).ToArray()) {
		t.Fatal("blend of two fields equals the first field")
	}

	if err := g.RemoveLink(l); err != nil {
		t.Fatal(err)
	}
	update(t, g)
	if got, want := output(t, g, blend).ToArray(), output(t, g, a).ToArray(); !equalArrays(got, want) {
		t.Errorf("blend with one input differs from that input by %g", maxDiff(got, want))
	}

	if err := g.RemoveLink(graph.Link{FromNode: a, FromPort: "output", ToNode: blend, ToPort: "input1"}); err != nil {
		t.Fatal(err)
	}
	update(t, g)
	if h := output(t, g, blend); h != nil {
		t.Error("blend without inputs should carry no data")
	}
}

func TestTiledNoiseMatchesSingleTile(t *testing.T) {
	field := func(tiling geom.Vec2[int], overlap float64) *hmap.Heightmap {
		cfg := config.DefaultGraphConfig()
		cfg.Shape = geom.V2(256, 256)
		cfg.Tiling = tiling
		cfg.Overlap = overlap
		g := graph.New("g0", &cfg, nodes.Default(discard()), graph.WithLogger(discard()))
		id := add(t, g, "Noise")
		set(t, g, id, "seed", 3)
		update(t, g)
		return output(t, g, id)
	}

	tiled := field(geom.V2(2, 2), 0.5)
	single := field(geom.V2(1, 1), 0)
	if len(tiled.Tiles) != 4 {
		t.Fatalf("tiles = %d, want 4", len(tiled.Tiles))
	}
	if s := tiled.MaxSeam(); s > 1e-4 {
		t.Errorf("halo mismatch %g", s)
	}
	if d := maxDiff(tiled.ToArray(), single.ToArray()); d > 1e-4 {
		t.Errorf("tiled field differs from single tile by %g", d)
	}
}

// ---------------------------------------------------------------------------
// Individual nodes
// ---------------------------------------------------------------------------

func constant(t *testing.T, g *graph.Graph, v float64) string {
	t.Helper()
	id := add(t, g, "Constant")
	set(t, g, id, "value", v)
	return id
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name  string
		typ   string
		input float64
		attrs map[string]any
		want  float32
	}{
		{"clamp high", "Clamp", 0.8, map[string]any{"clamp": []float64{0, 0.5}}, 0.5},
		{"clamp passes", "Clamp", 0.3, map[string]any{"clamp": []float64{0, 0.5}}, 0.3},
		{"inverse of flat field", "Inverse", 0.4, nil, 0.4},
		{"smooth flat field", "Smooth", 0.6, nil, 0.6},
		{"gain flat field", "Gain", 0.2, nil, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGraph(t)
			src := constant(t, g, tt.input)
			f := add(t, g, tt.typ)
			for k, v := range tt.attrs {
				set(t, g, f, k, v)
			}
			link(t, g, src, "output", f, "input")
			update(t, g)
			a := output(t, g, f).ToArray()
			lo, hi := math.Abs(float64(a.Min()-tt.want)), math.Abs(float64(a.Max()-tt.want))
			if lo > 1e-5 || hi > 1e-5 {
				t.Errorf("output range [%g, %g], want %g", a.Min(), a.Max(), tt.want)
			}
		})
	}
}

func TestRemapAndBlendAdd(t *testing.T) {
	g := newGraph(t)
	noise := add(t, g, "Noise")
	remap := add(t, g, "Remap")
	set(t, g, remap, "remap", []float64{-0.5, 0.5})
	link(t, g, noise, "output", remap, "input")

	blend := add(t, g, "Blend")
	link(t, g, remap, "output", blend, "input1")
	link(t, g, constant(t, g, 0.5), "output", blend, "input2")
	update(t, g)

	r := output(t, g, remap)
	if math.Abs(float64(r.Min()+0.5)) > 1e-5 || math.Abs(float64(r.Max()-0.5)) > 1e-5 {
		t.Errorf("remap range [%g, %g]", r.Min(), r.Max())
	}
	b := output(t, g, blend)
	if math.Abs(float64(b.Min())) > 1e-5 || math.Abs(float64(b.Max()-1)) > 1e-5 {
		t.Errorf("blend range [%g, %g], want [0, 1]", b.Min(), b.Max())
	}
}

func TestThermalDeposition(t *testing.T) {
	g := newGraph(t)
	shape := add(t, g, "SdfShape")
	set(t, g, shape, "falloff", 0.0)
	th := add(t, g, "Thermal")
	set(t, g, th, "iterations", 20)
	set(t, g, th, "talus_global", 0.5)
	link(t, g, shape, "output", th, "input")
	update(t, g)

	in := output(t, g, shape).ToArray()
	out := output(t, g, th).ToArray()
	if equalArrays(in, out) {
		t.Fatal("thermal erosion left a cliff untouched")
	}
	n, _ := g.Node(th)
	dep := node.Value[*hmap.Heightmap](n, "deposition").ToArray()
	if dep.Min() < 0 || dep.Max() <= 0 {
		t.Errorf("deposition range [%g, %g]", dep.Min(), dep.Max())
	}
}

func TestCloudAndPathSplat(t *testing.T) {
	g := newGraph(t)
	cloud := add(t, g, "CloudRandom")
	set(t, g, cloud, "npoints", 10)
	splat := add(t, g, "CloudToHeightmap")
	link(t, g, cloud, "cloud", splat, "cloud")

	path := add(t, g, "Path")
	set(t, g, path, "path", geom.Path{Points: []geom.Point{{X: 0.1, Y: 0.5, V: 1}, {X: 0.9, Y: 0.5, V: 1}}})
	line := add(t, g, "PathToHeightmap")
	link(t, g, path, "path", line, "path")
	update(t, g)

	if h := output(t, g, splat); h.Max() <= 0 {
		t.Error("cloud splat is empty")
	}
	a := output(t, g, line).ToArray()
	if a.At(16, 16) <= 0 || a.At(16, 0) != 0 {
		t.Errorf("path splat: centre %g, edge %g", a.At(16, 16), a.At(16, 0))
	}
}

func TestColorizeGradient(t *testing.T) {
	g := newGraph(t)
	noise := add(t, g, "Noise")
	col := add(t, g, "ColorizeGradient")
	link(t, g, noise, "output", col, "input")
	update(t, g)

	n, _ := g.Node(col)
	tex := node.Value[*hmap.HeightmapRGBA](n, "texture")
	if tex == nil {
		t.Fatal("no texture")
	}
	for _, ch := range tex.Channels() {
		if ch.Min() < 0 || ch.Max() > 1 {
			t.Errorf("channel outside [0, 1]: [%g, %g]", ch.Min(), ch.Max())
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	hpath := filepath.Join(dir, "terrain.png")
	mpath := filepath.Join(dir, "terrain.obj")

	g := newGraph(t)
	noise := add(t, g, "Noise")
	exp := add(t, g, "ExportHeightmap")
	set(t, g, exp, "fname", hpath)
	mesh := add(t, g, "ExportMesh")
	set(t, g, mesh, "fname", mpath)
	set(t, g, mesh, "step", 4)
	link(t, g, noise, "output", exp, "input")
	link(t, g, noise, "output", mesh, "input")
	update(t, g)

	for _, p := range []string{hpath, mpath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("export missing: %v", err)
		}
	}

	imp := add(t, g, "ImportHeightmap")
	set(t, g, imp, "fname", hpath)
	update(t, g)
	a := output(t, g, imp).ToArray()
	if a.Min() != 0 || math.Abs(float64(a.Max()-1)) > 1e-6 {
		t.Errorf("imported range [%g, %g], want [0, 1]", a.Min(), a.Max())
	}

	set(t, g, imp, "fname", filepath.Join(dir, "missing.png"))
	if err := g.Update(); err == nil {
		t.Error("importing a missing file should fail")
	}
}

// ---------------------------------------------------------------------------
// Routing
// ---------------------------------------------------------------------------

type registry map[string]*hmap.Heightmap

func (r registry) Publish(tag string, h *hmap.Heightmap) { r[tag] = h }
func (r registry) Unpublish(tag string)                  { delete(r, tag) }
func (r registry) Lookup(tag string) *hmap.Heightmap     { return r[tag] }
func (r registry) Tags() []string {
	var tags []string
	for k := range r {
		tags = append(tags, k)
	}
	slices.Sort(tags)
	return tags
}

func TestBroadcastReceive(t *testing.T) {
	reg := registry{}
	g := newGraph(t)
	g.SetBroadcaster(reg)

	src := constant(t, g, 0.25)
	bc := add(t, g, "Broadcast")
	link(t, g, src, "output", bc, "input")
	rc := add(t, g, "Receive")
	update(t, g)

	tag := "g0/" + bc + "/output"
	if reg[tag] == nil {
		t.Fatalf("tag %s not published: %v", tag, reg.Tags())
	}
	if h := output(t, g, rc); h != nil {
		t.Error("receive without a selected tag should carry no data")
	}

	if changed := g.NotifyTags(reg.Tags()); !slices.Contains(changed, rc) {
		t.Fatalf("NotifyTags did not refresh the receiver: %v", changed)
	}
	n, _ := g.Node(rc)
	if got := n.Attrs.Choice("tag"); got != tag {
		t.Fatalf("selected tag = %q, want %q", got, tag)
	}
	if hit := g.NotifyBroadcast(tag); !slices.Equal(hit, []string{rc}) {
		t.Errorf("NotifyBroadcast = %v", hit)
	}
	update(t, g)
	if a := output(t, g, rc).ToArray(); a.Min() != 0.25 || a.Max() != 0.25 {
		t.Errorf("received range [%g, %g]", a.Min(), a.Max())
	}

	if err := g.RemoveNode(bc); err != nil {
		t.Fatal(err)
	}
	if _, ok := reg[tag]; ok {
		t.Error("removing the broadcaster should unpublish its tag")
	}
	// a withdrawn tag drops out of the choices
	if changed := g.NotifyTags(reg.Tags()); !slices.Contains(changed, rc) {
		t.Errorf("losing the tag should refresh the receiver: %v", changed)
	}
	if got := n.Attrs.Choice("tag"); got != nodes.NoTag {
		t.Errorf("selection after withdrawal = %q, want %q", got, nodes.NoTag)
	}
	c := attr.MustGet[*attr.Choice](n.Attrs, "tag")
	if got := c.Choices(); !slices.Equal(got, []string{nodes.NoTag}) {
		t.Errorf("choices after withdrawal = %v", got)
	}
	update(t, g)
	if h := output(t, g, rc); h != nil {
		t.Error("receive on an unpublished tag should carry no data")
	}
}

func TestReceiveResamplesOtherLayout(t *testing.T) {
	reg := registry{}
	small := hmap.New(geom.V2(16, 16), geom.V2(1, 1), 0)
	small.Fill(0.75)
	reg.Publish("other/b/output", small)

	g := newGraph(t)
	g.SetBroadcaster(reg)
	rc := add(t, g, "Receive")
	g.NotifyTags(reg.Tags())
	update(t, g)

	h := output(t, g, rc)
	if h.Shape != geom.V2(32, 32) || len(h.Tiles) != 4 {
		t.Fatalf("received layout %v with %d tiles", h.Shape, len(h.Tiles))
	}
	if a := h.ToArray(); math.Abs(float64(a.Min()-0.75)) > 1e-6 {
		t.Errorf("received value %g", a.Min())
	}
}
