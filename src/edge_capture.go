package rxcore

/*------------------------------------------------------------------
 *
 * Purpose:	Parallel PWM edge capture: four pins (aileron, elevator,
 *		throttle, gear), plus rudder on the line shared with PPM,
 *		each independently timed.
 *
 * Description:	HandlePWMEdge is the pure decode logic; pwmLineWatcher
 *		below is the hardware wiring, requesting each input pin as
 *		a GPIO character-device line with both-edges detection via
 *		github.com/warthog618/go-gpiocdev.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// HandlePWMEdge records a rising edge's timestamp or, on a falling
// edge, the resulting pulse width. If ch is the configured sync
// channel, the falling edge also publishes the frame.
func (r *Receiver) HandlePWMEdge(ch Channel, rising bool, now uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter.NoteEvent()

	if r.cfg.RxMode != ModePWM {
		return
	}

	if rising {
		r.channelStart[ch] = now
		return
	}

	r.channels[ch] = now - r.channelStart[ch] // wraps mod 2^16 on overflow
	if ch == r.cfg.PWMSync {
		r.publishFrame(now)
	}
}

// pwmPins maps each parallel-PWM logical channel to the GPIO offset it
// is wired to on the reference carrier board. Rudder is intentionally
// absent: that pin (ppmPin, ppm.go) is shared with PPM and is requested
// separately below, with both-edge detection instead of PPM's
// falling-edge-only, since that line behaves as an ordinary PWM input
// whenever RxMode is PWM.
var pwmPins = map[Channel]int{
	Aileron:  17,
	Elevator: 27,
	Throttle: 22,
	Gear:     23,
}

// pwmLineWatcher requests one GPIO input line with both-edge detection
// and forwards every event to Receiver.HandlePWMEdge.
type pwmLineWatcher struct {
	ch   Channel
	line *gpiocdev.Line
}

// startPWMWatchers requests gpiocdev lines for every channel in
// pwmPins on chipName (e.g. "gpiochip0") and wires them to r. It
// returns the open lines so Mode Switch can close them on a mode
// change.
func startPWMWatchers(r *Receiver, chipName string) ([]*pwmLineWatcher, error) {
	watchers := make([]*pwmLineWatcher, 0, len(pwmPins))
	for ch, offset := range pwmPins {
		ch := ch
		line, err := gpiocdev.RequestLine(chipName, offset,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				r.HandlePWMEdge(ch, evt.Type == gpiocdev.LineEventRisingEdge, tickFromTimestamp(evt.Timestamp))
			}),
		)
		if err != nil {
			for _, w := range watchers {
				_ = w.line.Close()
			}
			return nil, fmt.Errorf("rxcore: requesting PWM line %s:%d: %w", chipName, offset, err)
		}
		watchers = append(watchers, &pwmLineWatcher{ch: ch, line: line})
	}
	return watchers, nil
}

func closePWMWatchers(watchers []*pwmLineWatcher) {
	for _, w := range watchers {
		_ = w.line.Close()
	}
}

// startRudderPWMWatcher requests the shared PPM/rudder line (ppmPin,
// ppm.go) with both-edge detection and wires it to HandlePWMEdge as
// the Rudder channel. Called only in PWM mode; PPM mode requests the
// same offset with falling-edge-only detection via startPPMWatcher.
func startRudderPWMWatcher(r *Receiver, chipName string) (*pwmLineWatcher, error) {
	line, err := gpiocdev.RequestLine(chipName, ppmPin,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			r.HandlePWMEdge(Rudder, evt.Type == gpiocdev.LineEventRisingEdge, tickFromTimestamp(evt.Timestamp))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("rxcore: requesting rudder PWM line %s:%d: %w", chipName, ppmPin, err)
	}
	return &pwmLineWatcher{ch: Rudder, line: line}, nil
}
