package rxcore

/*------------------------------------------------------------------
 *
 * Purpose:	Receiver owns all process-global decode state and is the
 *		single critical section every hardware-facing goroutine
 *		(edge_capture.go, serial_framer.go) writes through.
 *
 * Description:	Each hardware source runs its own goroutine; Receiver's
 *		mutex is the one critical section they all write through,
 *		and Snapshot() is the foreground's read: copy out under
 *		the lock, so a reader never observes a torn vector.
 *
 *------------------------------------------------------------------*/

import "sync"

// Snapshot is the read-only view the foreground (mixer/servo stage)
// consumes.
type Snapshot struct {
	Channels    ChannelVector
	Interrupted bool
	FrameRate   uint16
	JitterFlag  bool
}

// Receiver decodes whichever transport Config.RxMode selects into a
// shared ChannelVector, a frame-complete pulse, and a frame-rate
// measurement.
type Receiver struct {
	mu sync.Mutex

	tb  *Timebase
	cfg Config

	channels     ChannelVector
	channelStart [MaxChannels]uint16

	watchdog WatchdogState
	jitter   JitterState

	frameRate uint16

	fs           FrameState
	lastByteTime uint16
	haveLastByte bool

	ppm ppmState
}

// NewReceiver creates a Receiver using tb for timestamps and cfg as the
// initial configuration snapshot.
func NewReceiver(tb *Timebase, cfg Config) *Receiver {
	return &Receiver{tb: tb, cfg: cfg}
}

// Config returns the receiver's current configuration snapshot.
func (r *Receiver) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Snapshot copies out the published state under the critical section,
// then clears Interrupted: it is a one-shot the consumer acknowledges
// by reading.
func (r *Receiver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Channels:    r.channels,
		Interrupted: r.watchdog.Interrupted,
		FrameRate:   r.frameRate,
		JitterFlag:  r.jitter.Flag,
	}
	r.watchdog.Clear()
	return snap
}

// OpenJitterGate and CloseJitterGate bracket a foreground output-
// generation window.
func (r *Receiver) OpenJitterGate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jitter.OpenGate()
}

func (r *Receiver) CloseJitterGate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jitter.CloseGate()
}

// TickWatchdog drives the signal-loss watchdog; see WatchdogState.Tick.
// It only raises Overdue; acting on it is each hardware handler's own
// job.
func (r *Receiver) TickWatchdog(delta uint16, threshold uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchdog.Tick(delta, threshold)
}

// publishFrame raises Interrupted and resets the watchdog
// bookkeeping common to every successful decode.
func (r *Receiver) publishFrame(now uint16) {
	r.watchdog.Seen(now)
}
