package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/hmap"
	"gopkg.in/yaml.v3"
)

// Settings is the batch driver configuration file.
type Settings struct {
	LogLevel  string        `yaml:"log_level"`
	Workers   int           `yaml:"workers"`
	GPUDevice string        `yaml:"gpu_device"`
	ExportDir string        `yaml:"export_dir"`
	Graph     GraphSettings `yaml:"graph"`
}

// GraphSettings is the default layout given to new graphs.
type GraphSettings struct {
	Shape            geom.Vec2[int] `yaml:"shape"`
	Tiling           geom.Vec2[int] `yaml:"tiling"`
	Overlap          float64        `yaml:"overlap"`
	TransformModeCPU string         `yaml:"transform_mode_cpu"`
	TransformModeGPU string         `yaml:"transform_mode_gpu"`
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() *Settings {
	s := &Settings{}
	if err := s.Validate(); err != nil {
		panic("config: default settings invalid: " + err.Error())
	}
	return s
}

// Load reads and validates a settings file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate fills defaults and rejects values the engine cannot use.
func (s *Settings) Validate() error {
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if s.Workers == 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.ExportDir == "" {
		s.ExportDir = "."
	}

	g := &s.Graph
	if g.Shape == (geom.Vec2[int]{}) {
		g.Shape = geom.V2(DefaultShape, DefaultShape)
	}
	if g.Tiling == (geom.Vec2[int]{}) {
		g.Tiling = geom.V2(DefaultTiling, DefaultTiling)
	}
	if g.TransformModeCPU == "" {
		g.TransformModeCPU = hmap.Distributed.String()
	}
	if g.TransformModeGPU == "" {
		g.TransformModeGPU = hmap.GPU.String()
	}
	cfg, err := s.GraphConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	return nil
}

// Level parses LogLevel.
func (s *Settings) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level %q invalid: %w", s.LogLevel, err)
	}
	return lvl, nil
}

// GraphConfig converts the graph section into a GraphConfig. The executor
// is left to the caller.
func (s *Settings) GraphConfig() (GraphConfig, error) {
	cpu, err := hmap.ParseTransformMode(s.Graph.TransformModeCPU)
	if err != nil {
		return GraphConfig{}, fmt.Errorf("graph.transform_mode_cpu: %w", err)
	}
	gpu, err := hmap.ParseTransformMode(s.Graph.TransformModeGPU)
	if err != nil {
		return GraphConfig{}, fmt.Errorf("graph.transform_mode_gpu: %w", err)
	}
	return GraphConfig{
		Shape:            s.Graph.Shape,
		Tiling:           s.Graph.Tiling,
		Overlap:          s.Graph.Overlap,
		TransformModeCPU: cpu,
		TransformModeGPU: gpu,
		ExportDir:        s.ExportDir,
	}, nil
}
