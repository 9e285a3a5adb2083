package game

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bellapacxx/bingo-engine/utils/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrier_FirstAttemptSucceeds(t *testing.T) {
	r := newRetrier(time.Millisecond, time.Millisecond, logger.Named("test"))
	defer r.close()

	var calls int32
	ok := r.do("k", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	assert.True(t, ok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetrier_BacksOffUntilSuccess(t *testing.T) {
	r := newRetrier(time.Millisecond, 4*time.Millisecond, logger.Named("test"))
	defer r.close()

	var calls int32
	ok := r.do("k", func(context.Context) error {
		if atomic.AddInt32(&calls, 1) < 5 {
			return errors.New("busy")
		}
		return nil
	})
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 5
	}, 2*time.Second, time.Millisecond)
}

func TestRetrier_CloseAbandonsPending(t *testing.T) {
	r := newRetrier(time.Hour, time.Hour, logger.Named("test"))

	var calls int32
	r.do("k", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("down")
	})

	done := make(chan struct{})
	go func() {
		r.close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("close did not return")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	assert.False(t, r.do("late", func(context.Context) error { return errors.New("down") }))
}

func TestNewRetrier_Defaults(t *testing.T) {
	r := newRetrier(0, 0, logger.Named("test"))
	defer r.close()
	assert.Equal(t, 500*time.Millisecond, r.base)
	assert.Equal(t, r.base, r.limit)
}
