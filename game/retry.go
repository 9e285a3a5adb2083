package game

import (
	"context"
	"sync"
	"time"

	"github.com/bellapacxx/bingo-engine/metrics"

	"go.uber.org/zap"
)

const attemptTimeout = 10 * time.Second

// retrier runs a ledger write once in the caller's goroutine and, if that
// fails, keeps retrying it in the background with exponential backoff until it
// succeeds or the engine shuts down.
type retrier struct {
	base, limit time.Duration
	log       *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newRetrier(base, limit time.Duration, log *zap.SugaredLogger) *retrier {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if limit < base {
		limit = base
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &retrier{base: base, limit: limit, log: log, ctx: ctx, cancel: cancel}
}

func (r *retrier) attempt(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(r.ctx, attemptTimeout)
	defer cancel()
	return fn(ctx)
}

// do reports whether the first attempt succeeded.
func (r *retrier) do(key string, fn func(ctx context.Context) error) bool {
	err := r.attempt(fn)
	if err == nil {
		return true
	}
	if r.ctx.Err() != nil {
		r.log.Errorw("ledger write dropped during shutdown", "key", key, "error", err)
		return false
	}
	r.log.Warnw("ledger write failed, retrying", "key", key, "error", err)

	r.wg.Add(1)
	go r.loop(key, fn)
	return false
}

func (r *retrier) loop(key string, fn func(ctx context.Context) error) {
	defer r.wg.Done()

	delay := r.base
	for attempt := 2; ; attempt++ {
		t := time.NewTimer(delay)
		select {
		case <-r.ctx.Done():
			t.Stop()
			r.log.Errorw("ledger write abandoned at shutdown", "key", key, "attempts", attempt-1)
			return
		case <-t.C:
		}

		metrics.LedgerRetries.Inc()
		err := r.attempt(fn)
		if err == nil {
			r.log.Infow("ledger write succeeded after retry", "key", key, "attempts", attempt)
			return
		}
		r.log.Warnw("ledger write retry failed", "key", key, "attempt", attempt, "error", err)

		delay *= 2
		if delay > r.limit {
			delay = r.limit
		}
	}
}

func (r *retrier) close() {
	r.cancel()
	r.wg.Wait()
}
