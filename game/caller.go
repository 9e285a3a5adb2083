package game

import (
	"math/rand/v2"
	"time"
)

var drawIndex = func(n int) int { return rand.IntN(n) }

// caller owns the single scheduled tick of one session. Every method must be
// called with the session mutex held.
//
// Each arm bumps gen, and the fired callback re-checks its gen under the
// session mutex, so a tick whose timer already fired but lost the race to a
// pause or cancel is discarded instead of writing.
type caller struct {
	interval time.Duration
	timer    *time.Timer
	gen      uint64
}

// arm cancels any pending tick and schedules a new one. It is a no-op in
// manual mode.
func (c *caller) arm(fire func(gen uint64)) {
	c.cancel()
	if c.interval <= 0 {
		return
	}
	gen := c.gen
	c.timer = time.AfterFunc(c.interval, func() { fire(gen) })
}

func (c *caller) cancel() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *caller) current(gen uint64) bool {
	return c.gen == gen
}

func (c *caller) armed() bool {
	return c.timer != nil
}

// draw picks uniformly among the numbers not yet called. ok is false once all
// of 1..MaxNumber are out.
func draw(called *[MaxNumber + 1]bool) (n int, ok bool) {
	available := make([]int, 0, MaxNumber)
	for i := 1; i <= MaxNumber; i++ {
		if !called[i] {
			available = append(available, i)
		}
	}
	if len(available) == 0 {
		return 0, false
	}
	return available[drawIndex(len(available))], true
}
