// Package session owns the in-memory state fed by backend fetches: the
// current feed collection and the history of the selected line.
//
// Every fetch goes through a Loader. Starting a load cancels the one in
// flight, and a result is applied only if no newer load started meanwhile.
// Stale results are dropped, never queued or retried.
package session

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by Load when a newer load started before this
// one finished. Its result was discarded.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Loader serializes the application of async results for one input.
type Loader[K comparable, T any] struct {
	mu     sync.Mutex
	gen    uint64
	key    K
	cancel context.CancelFunc
}

// Load runs fetch for key, cancelling any load in flight. When fetch
// returns and this is still the newest load, apply receives its result
// while the loader is locked, so applies never interleave. A superseded
// load returns ErrSuperseded without calling apply. If ctx itself was
// cancelled the result is not applied either and ctx's error is returned.
func (l *Loader[K, T]) Load(ctx context.Context, key K, fetch func(context.Context, K) (T, error), apply func(T, error)) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	l.key = key
	fctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	v, err := fetch(fctx, key)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		cancel()
		return ErrSuperseded
	}
	l.cancel = nil
	cancel()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	apply(v, err)
	return err
}

// Key returns the key of the newest load.
func (l *Loader[K, T]) Key() K {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.key
}

// Cancel aborts the load in flight, if any. Its result is discarded.
func (l *Loader[K, T]) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}
