package rxcore

/*------------------------------------------------------------------
 *
 * Purpose:	Free-running tick counter used to timestamp edges and
 *		serial byte arrivals.
 *
 * Description:	Models a 16-bit hardware timer running at 2.5MHz
 *		(400ns/tick) whose readout must never be torn across its
 *		two byte halves. Here the timer is a plain atomic counter;
 *		Tick() is that atomic-read primitive.
 *
 *------------------------------------------------------------------*/

import (
	"sync/atomic"
	"time"
)

// TicksPerSecond is the simulated timer frequency: 400ns per tick.
const TicksPerSecond = 2_500_000

// nanosPerTick is the duration of one tick.
const nanosPerTick = 400

// Timebase is a free-running 16-bit tick counter with a coarse extension
// counter for intervals longer than one 16-bit rollover (~26.2ms).
type Timebase struct {
	ticks     atomic.Uint32 // low 16 bits are the hardware-equivalent counter
	overflows atomic.Uint32 // incremented once per 16-bit wrap
}

// NewTimebase returns a Timebase starting at tick zero.
func NewTimebase() *Timebase {
	return &Timebase{}
}

// Tick returns the current 16-bit tick value. Equivalent to the
// original's TIM16_ReadTCNT1: an atomic read regardless of how the
// underlying counter is represented.
func (tb *Timebase) Tick() uint16 {
	return uint16(tb.ticks.Load())
}

// Overflows returns the number of 16-bit wraps observed so far, for
// watchdogs that need to measure intervals longer than one wrap.
func (tb *Timebase) Overflows() uint32 {
	return tb.overflows.Load()
}

// Advance moves the counter forward by delta ticks, wrapping at 16 bits
// and bumping the overflow counter on each wrap. Production code calls
// this from whatever drives the real or simulated timer; tests call it
// directly to manufacture specific tick values.
func (tb *Timebase) Advance(delta uint16) uint16 {
	for {
		old := tb.ticks.Load()
		next := (old + uint32(delta)) & 0xffff
		if tb.ticks.CompareAndSwap(old, next) {
			if next < old {
				tb.overflows.Add(1)
			}
			return uint16(next)
		}
	}
}

// Drive advances tb in step with the host monotonic clock, in
// resolution-sized steps, until stop is closed. Live commands run it
// in its own goroutine; replay tools and tests call Advance directly
// instead. The uint16 truncation of the elapsed tick count is
// harmless: the counter wraps at 16 bits anyway.
func (tb *Timebase) Drive(stop <-chan struct{}, resolution time.Duration) {
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			tb.Advance(uint16(elapsed.Nanoseconds() / nanosPerTick)) //nolint:gosec
		}
	}
}

// tickFromTimestamp converts a kernel event timestamp (nanoseconds on
// the monotonic clock) into 16-bit tick units. Event timestamps and
// the free-running counter have unrelated epochs; that is fine because
// every consumer works with differences between timestamps from the
// same source.
func tickFromTimestamp(d time.Duration) uint16 {
	return uint16(d.Nanoseconds() / nanosPerTick) //nolint:gosec
}

// Since computes the number of ticks that have elapsed from `start` to
// the current tick, handling a single 16-bit wraparound.
func (tb *Timebase) Since(start uint16) uint16 {
	return tickDelta(tb.Tick(), start)
}

// tickDelta computes the number of ticks between start and now,
// handling a single 16-bit wraparound. Used by callers (edge capture,
// the serial framer) that are handed an explicit timestamp rather than
// reading the timebase live, so gap measurement stays deterministic
// under replay and in tests.
func tickDelta(now, start uint16) uint16 {
	if now < start {
		return uint16(65536 - int(start) + int(now))
	}
	return now - start
}
