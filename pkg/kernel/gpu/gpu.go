// Package gpu provides the accelerator devices used by the GPU transform
// mode of the tiled heightmap model. A device owns a command queue; callers
// submit batches of jobs and block until the whole batch has executed.
//
// Devices are opened by driver name. The "emulator" driver runs the queue on
// a dedicated goroutine and is always available. The "opencl" driver is
// registered but reports ErrUnavailable unless a real runtime binding
// replaces it through Register.
package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrUnavailable is returned when a device driver cannot be opened.
var ErrUnavailable = errors.New("gpu: device not available")

// ErrClosed is returned when work is submitted to a closed device.
var ErrClosed = errors.New("gpu: device closed")

// Job is one unit of work executed on the device queue.
type Job func() error

// Device is an accelerator with a command queue.
type Device interface {
	// Name returns the driver name the device was opened with.
	Name() string
	// Run enqueues jobs and blocks until all of them have executed. Every
	// job runs even when an earlier one fails; the job errors are returned
	// joined after the batch drains.
	Run(jobs []Job) error
	// Close releases the device. Pending batches complete first.
	Close() error
}

// OpenFunc opens a device for a driver.
type OpenFunc func(logger *slog.Logger) (Device, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]OpenFunc{
		"emulator": func(logger *slog.Logger) (Device, error) { return NewEmulator(logger), nil },
		"opencl":   openOpenCL,
	}
)

// Register installs or replaces the driver for name.
func Register(name string, open OpenFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = open
}

// Drivers returns the registered driver names in sorted order.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the device registered under name.
func Open(name string, logger *slog.Logger) (Device, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driversMu.RLock()
	open, ok := drivers[name]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown driver %q", ErrUnavailable, name)
	}
	dev, err := open(logger)
	if err != nil {
		return nil, fmt.Errorf("open %s device: %w", name, err)
	}
	logger.Debug("gpu device opened", "driver", name)
	return dev, nil
}

func openOpenCL(*slog.Logger) (Device, error) {
	return nil, fmt.Errorf("%w: opencl runtime not linked into this build", ErrUnavailable)
}
