package app

import (
	"context"
	"errors"
	"sync"

	"github.com/hyperifyio/goknowledge/internal/retrieval"
)

// ErrBusy is returned by Submit while a retrieval is still in flight.
var ErrBusy = errors.New("a retrieval is already running")

// Answerer produces a report for one query. *App implements it.
type Answerer interface {
	Answer(ctx context.Context, q retrieval.Query) (Report, error)
}

// Runner executes one retrieval at a time on its own goroutine and delivers
// the outcome through a callback, so a front-end stays responsive while the
// pipeline waits on the network.
type Runner struct {
	App Answerer

	mu   sync.Mutex
	busy bool
	wg   sync.WaitGroup
}

// Submit starts q in the background. done is called exactly once with the
// report and error from Answer. A second Submit while Answer is still running
// fails with ErrBusy.
func (r *Runner) Submit(ctx context.Context, q retrieval.Query, done func(Report, error)) error {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return ErrBusy
	}
	r.busy = true
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		rep, err := r.App.Answer(ctx, q)
		r.mu.Lock()
		r.busy = false
		r.mu.Unlock()
		if done != nil {
			done(rep, err)
		}
	}()
	return nil
}

// Busy reports whether a retrieval is in flight.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Wait blocks until every submitted retrieval has delivered its result.
func (r *Runner) Wait() { r.wg.Wait() }
