package gpu

import (
	"errors"
	"log/slog"
	"sync"
)

// Compile-time interface check.
var _ Device = (*Emulator)(nil)

type batch struct {
	jobs []Job
	done chan error
}

// Emulator is a software device. Batches are executed in submission order
// on a single queue goroutine, mirroring an in-order accelerator queue.
type Emulator struct {
	logger *slog.Logger
	queue  chan batch

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewEmulator starts an emulated device.
func NewEmulator(logger *slog.Logger) *Emulator {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Emulator{
		logger: logger,
		queue:  make(chan batch, 8),
	}
	e.wg.Add(1)
	go e.loop()
	return e
}

// Name returns "emulator".
func (e *Emulator) Name() string { return "emulator" }

func (e *Emulator) loop() {
	defer e.wg.Done()
	for b := range e.queue {
		var errs []error
		for _, job := range b.jobs {
			if err := job(); err != nil {
				errs = append(errs, err)
			}
		}
		b.done <- errors.Join(errs...)
	}
}

// Run executes jobs on the device queue and waits for completion.
func (e *Emulator) Run(jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	b := batch{jobs: jobs, done: make(chan error, 1)}
	e.queue <- b
	e.mu.Unlock()

	err := <-b.done
	if err != nil {
		e.logger.Debug("gpu batch failed", "jobs", len(jobs), "err", err)
	}
	return err
}

// Close drains the queue and stops the device goroutine.
func (e *Emulator) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()
	e.wg.Wait()
	return nil
}
