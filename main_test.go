package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCLIUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no command", nil, 2},
		{"unknown command", []string{"erode"}, 2},
		{"help", []string{"help"}, 0},
		{"run help", []string{"run", "--help"}, 0},
		{"run without project", []string{"run"}, 2},
		{"run with two projects", []string{"run", "a.json", "b.json"}, 2},
		{"inventory with argument", []string{"inventory", "extra"}, 2},
		{"bad flag", []string{"inventory", "--colour"}, 2},
		{"bad flag value", []string{"run", "--force=maybe", "p.json"}, 2},
		{"bad format", []string{"inventory", "--format", "xml"}, 1},
		{"bad log level", []string{"inventory", "--log-level", "loud"}, 1},
		{"missing settings", []string{"inventory", "--settings", "nowhere.yaml"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(tt.args, &stdout, &stderr); got != tt.code {
				t.Errorf("run(%v) = %d, want %d\nstderr: %s", tt.args, got, tt.code, stderr.String())
			}
		})
	}
}

func TestCLIInventory(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{"table", []string{"type", "category", "NoiseFbm", "Primitive/Coherent", "Thermal"}},
		{"csv", []string{"type,category", "NoiseFbm,Primitive/Coherent", "Receive,Routing"}},
		{"mermaid", []string{"mindmap", "root((nodes))", "Erosion"}},
		{"yaml", []string{"Routing:", "- Broadcast"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run([]string{"inventory", "--format", tt.format}, &stdout, &stderr); code != 0 {
				t.Fatalf("exit %d: %s", code, stderr.String())
			}
			for _, w := range tt.want {
				if !strings.Contains(stdout.String(), w) {
					t.Errorf("output missing %q:\n%s", w, stdout.String())
				}
			}
		})
	}
}

func TestCLIRun(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "loam.yaml", `
log_level: warn
workers: 2
export_dir: `+dir+`
graph:
  shape: {x: 32, y: 32}
  tiling: {x: 2, y: 2}
  overlap: 0.25
`)
	script := writeFile(t, dir, "p.lisp", `
(graph "g")
(link (node "WhiteNoise" :seed 4) (node "ExportHeightmap" :fname "white.png"))
`)
	out := filepath.Join(dir, "p.json")

	var stdout, stderr bytes.Buffer
	code := run([]string{"run", "-s", settings, "-o", out, script}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	for _, w := range []string{"graph", "computed", "ok"} {
		if !strings.Contains(stdout.String(), w) {
			t.Errorf("report missing %q:\n%s", w, stdout.String())
		}
	}
	for _, name := range []string{"white.png", "p.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	stdout.Reset()
	if code := run([]string{"run", "--quiet", "--force", "-s", settings, out}, &stdout, &stderr); code != 0 {
		t.Fatalf("rerun exit %d: %s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("quiet run printed %q", stdout.String())
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"graph", "status"}, [][]string{{"relief", "ok"}, {"detail", "failed"}}, "detail")
	for _, w := range []string{"graph", "status", "relief", "detail", "failed"} {
		if !strings.Contains(out, w) {
			t.Errorf("table missing %q:\n%s", w, out)
		}
	}
	if lines := strings.Count(out, "\n") + 1; lines != 5 {
		t.Errorf("table has %d lines, want header, two rows and a border:\n%s", lines, out)
	}
}
