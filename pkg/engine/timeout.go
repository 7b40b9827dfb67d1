package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/loam/pkg/manager"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	ErrTimeout    = fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	project *manager.Manager
	errors  []EvalError
	err     error
}

// waitWithTimeout waits for a result from ch, giving up after EvalTimeout.
// A result whose generation is no longer current is discarded.
//
// On timeout the evaluating goroutine may still be running; the generation
// check drops its result when it eventually completes.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*manager.Manager, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.project, res.errors, res.err

	case <-timer.C:
		return nil, nil, ErrTimeout
	}
}
