package rxcore

/*------------------------------------------------------------------
 *
 * Purpose:	Combined PPM (CPPM) decoding: all channels as sequential
 *		pulses on one shared input, separated by a long sync gap.
 *
 * Description:	The channel count is auto-detected: maxChan tracks
 *		the highest pulse index seen in a frame, and Interrupted
 *		is raised exactly when the running index reaches it again,
 *		without any configuration naming how many channels the
 *		transmitter actually sends.
 *
 *------------------------------------------------------------------*/

import "github.com/warthog618/go-gpiocdev"

const (
	ppmSyncPulseWidth = 6750 // 2.7ms: gap longer than this is a sync pulse
	ppmMinPulseWidth  = 750  // 300us: gap shorter than this is a glitch
	maxPPMChannels    = 8    // only the first 8 decoded channels are stored
)

// ppmState is the CPPM-specific auto-detection bookkeeping.
type ppmState struct {
	lastEdge uint16
	chanIdx  int
	maxChan  int
}

// HandlePPMEdge processes one falling edge on the shared PPM/rudder
// line. now is the edge's timestamp.
func (r *Receiver) HandlePPMEdge(now uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter.NoteEvent()
	if r.cfg.RxMode != ModePPM {
		return
	}

	gap := now - r.ppm.lastEdge
	if gap > ppmSyncPulseWidth || gap < ppmMinPulseWidth {
		r.ppm.chanIdx = 0
	}
	r.ppm.lastEdge = now

	idx := r.ppm.chanIdx
	curChannel := r.cfg.ChannelOrder[idx%MaxChannels]

	if idx < maxPPMChannels {
		r.channelStart[curChannel] = now
	}
	if idx > 0 && idx <= maxPPMChannels {
		prevChannel := r.cfg.ChannelOrder[(idx-1)%MaxChannels]
		r.channels[prevChannel] = now - r.channelStart[prevChannel]
	}

	idx++
	r.ppm.chanIdx = idx
	switch {
	case idx > r.ppm.maxChan:
		r.ppm.maxChan = idx
	case idx == r.ppm.maxChan:
		r.publishFrame(now)
	}

	// If the watchdog declared the signal lost since the last edge,
	// force maxChan recalibration and acknowledge the loss here,
	// one-shot. Doing it from the watchdog's own periodic tick
	// instead would re-zero maxChan on every tick for as long as
	// Overdue stayed set.
	if r.watchdog.Overdue {
		r.ppm.maxChan = 0
		r.watchdog.Overdue = false
	}
}

// ppmLineWatcher requests the shared PPM input with falling-edge-only
// detection; only falling edges carry channel timing.
type ppmLineWatcher struct {
	line *gpiocdev.Line
}

// ppmPin is the GPIO offset the shared PPM/rudder input is wired to.
const ppmPin = 4

func startPPMWatcher(r *Receiver, chipName string) (*ppmLineWatcher, error) {
	line, err := gpiocdev.RequestLine(chipName, ppmPin,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			r.HandlePPMEdge(tickFromTimestamp(evt.Timestamp))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &ppmLineWatcher{line: line}, nil
}

func closePPMWatcher(w *ppmLineWatcher) {
	if w != nil {
		_ = w.line.Close()
	}
}
