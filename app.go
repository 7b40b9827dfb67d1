package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/loam/pkg/config"
	"github.com/chazu/loam/pkg/engine"
	"github.com/chazu/loam/pkg/graph"
	"github.com/chazu/loam/pkg/hmap"
	"github.com/chazu/loam/pkg/kernel/gpu"
	"github.com/chazu/loam/pkg/manager"
	"github.com/chazu/loam/pkg/node"
	"github.com/chazu/loam/pkg/nodes"
)

// App is the batch driver backend: it owns the node registry, the tile
// executor and the scripting engine shared by every project it runs.
type App struct {
	logger   *slog.Logger
	registry *nodes.Registry
	executor *hmap.Executor
	config   config.GraphConfig
	engine   *engine.Engine
}

// NewApp prepares an App from validated settings. An accelerator that
// cannot be opened is logged and GPU-mode kernels run on the CPU instead.
func NewApp(s *config.Settings, logger *slog.Logger) (*App, error) {
	cfg, err := s.GraphConfig()
	if err != nil {
		return nil, err
	}
	ex := &hmap.Executor{Workers: s.Workers, Logger: logger}
	if s.GPUDevice != "" {
		dev, err := gpu.Open(s.GPUDevice, logger)
		switch {
		case errors.Is(err, gpu.ErrUnavailable):
			logger.Warn("gpu device unavailable, using cpu tiles", "device", s.GPUDevice, "err", err)
		case err != nil:
			return nil, err
		default:
			ex.Device = dev
		}
	}
	cfg.Executor = ex

	registry := nodes.Default(logger)
	return &App{
		logger:   logger,
		registry: registry,
		executor: ex,
		config:   cfg,
		engine:   engine.NewEngine(registry, cfg, engine.WithLogger(logger)),
	}, nil
}

// Close releases the accelerator, if any.
func (a *App) Close() error {
	if a.executor.Device == nil {
		return nil
	}
	return a.executor.Device.Close()
}

// Registry returns the node registry.
func (a *App) Registry() *nodes.Registry { return a.registry }

// ScriptError carries the evaluation errors of a project script.
type ScriptError struct {
	Path   string
	Errors []engine.EvalError
}

func (e *ScriptError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ee := range e.Errors {
		msgs[i] = ee.Error()
	}
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(msgs, "; "))
}

// Open loads a project: .lisp files are evaluated as scripts, anything else
// is read as a saved project document.
func (a *App) Open(path string) (*manager.Manager, error) {
	if strings.EqualFold(filepath.Ext(path), ".lisp") {
		return a.evaluate(path)
	}
	m := manager.New(a.registry, a.config, manager.WithLogger(a.logger))
	if err := m.Load(path); err != nil {
		return nil, err
	}
	return m, nil
}

// RunOptions selects what Run does with a project.
type RunOptions struct {
	Input  string
	Output string // project document written after the update, if set
	Force  bool   // recompute every node
	Reseed bool   // draw new seeds before updating
}

// GraphReport summarises the update of one graph.
type GraphReport struct {
	Graph    string
	Nodes    int
	Computed int
	Failed   int
	Elapsed  time.Duration
	Err      error
}

// Run opens, updates and optionally saves a project. The per-graph reports
// are returned even when some graphs fail.
func (a *App) Run(opts RunOptions) ([]GraphReport, error) {
	m, err := a.Open(opts.Input)
	if err != nil {
		return nil, err
	}
	if opts.Reseed {
		n := m.Reseed(rand.Uint32)
		a.logger.Info("project reseeded", "seeds", n)
	}

	reports := newReporter(m)
	defer reports.stop()

	update := m.Update
	if opts.Force {
		update = m.ForceUpdate
	}
	updateErr := update()
	if updateErr != nil {
		a.logger.Error("project update failed", "err", updateErr)
	}

	if opts.Output != "" {
		if err := m.Save(opts.Output); err != nil {
			return reports.list(), errors.Join(updateErr, err)
		}
	}
	return reports.list(), updateErr
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

// reporter observes every graph of a project and tallies its updates.
type reporter struct {
	order   []string
	byGraph map[string]*GraphReport
	started map[string]time.Time
	cancels []func()
}

func newReporter(m *manager.Manager) *reporter {
	r := &reporter{
		byGraph: make(map[string]*GraphReport),
		started: make(map[string]time.Time),
	}
	for _, g := range m.Graphs() {
		r.order = append(r.order, g.ID)
		r.byGraph[g.ID] = &GraphReport{Graph: g.ID, Nodes: g.Len()}
		r.cancels = append(r.cancels, g.Observe(graph.ObserverFuncs{
			OnUpdateStarted: func(g *graph.Graph) { r.started[g.ID] = time.Now() },
			OnComputeFinished: func(g *graph.Graph, _ *node.Node, err error) {
				rep := r.byGraph[g.ID]
				rep.Computed++
				if err != nil {
					rep.Failed++
				}
			},
			OnUpdateFinished: func(g *graph.Graph, err error) {
				rep := r.byGraph[g.ID]
				rep.Elapsed += time.Since(r.started[g.ID])
				rep.Err = err
			},
		}))
	}
	return r
}

func (r *reporter) stop() {
	for _, cancel := range r.cancels {
		cancel()
	}
}

func (r *reporter) list() []GraphReport {
	out := make([]GraphReport, len(r.order))
	for i, id := range r.order {
		out[i] = *r.byGraph[id]
	}
	return out
}

func (a *App) evaluate(path string) (*manager.Manager, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	m, evalErrs, err := a.engine.Evaluate(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		return nil, &ScriptError{Path: path, Errors: evalErrs}
	}
	return m, nil
}
