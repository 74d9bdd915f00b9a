package rxcore

/*------------------------------------------------------------------
 *
 * Purpose:	Enforce mutual exclusivity between the edge-timed
 *		transports (PWM, PPM) and the byte-oriented serial
 *		transports.
 *
 * Description:	Exactly one set of hardware sources may be active at a
 *		time. SetMode tears down whatever was running and brings
 *		up only what the new mode needs: PWM watchers for PWM, the
 *		shared line for PPM, or a serial port for any of the five
 *		byte protocols.
 *
 *------------------------------------------------------------------*/

import "fmt"

// ModeSwitch owns the hardware sources feeding a Receiver and enforces
// that only the set belonging to the active mode is ever running.
type ModeSwitch struct {
	r *Receiver

	chipName   string
	serialPath string

	pwm    []*pwmLineWatcher
	ppm    *ppmLineWatcher
	serial *SerialSource
}

// NewModeSwitch returns a ModeSwitch for r. chipName is the GPIO chip
// used for PWM/PPM inputs; serialPath is the device used for any
// serial mode.
func NewModeSwitch(r *Receiver, chipName, serialPath string) *ModeSwitch {
	return &ModeSwitch{r: r, chipName: chipName, serialPath: serialPath}
}

// SetMode stops whatever hardware sources are currently running,
// applies cfg to the Receiver, and starts the sources cfg.RxMode
// requires.
func (m *ModeSwitch) SetMode(cfg Config, tb *Timebase) error {
	m.stopAll()

	m.r.mu.Lock()
	m.r.cfg = cfg
	m.r.fs.Reset()
	m.r.ppm = ppmState{}
	m.r.haveLastByte = false
	m.r.mu.Unlock()

	switch {
	case cfg.RxMode == ModePWM:
		watchers, err := startPWMWatchers(m.r, m.chipName)
		if err != nil {
			return fmt.Errorf("rxcore: starting PWM mode: %w", err)
		}
		rudder, err := startRudderPWMWatcher(m.r, m.chipName)
		if err != nil {
			closePWMWatchers(watchers)
			return fmt.Errorf("rxcore: starting PWM mode: %w", err)
		}
		m.pwm = append(watchers, rudder)

	case cfg.RxMode == ModePPM:
		watcher, err := startPPMWatcher(m.r, m.chipName)
		if err != nil {
			return fmt.Errorf("rxcore: starting PPM mode: %w", err)
		}
		m.ppm = watcher

	case cfg.RxMode.isSerial():
		src, err := OpenSerialSource(m.serialPath, cfg.RxMode)
		if err != nil {
			return fmt.Errorf("rxcore: starting %s mode: %w", cfg.RxMode, err)
		}
		m.serial = src
		go func() {
			_ = src.Run(m.r, tb)
		}()

	default:
		return fmt.Errorf("rxcore: unknown mode %v", cfg.RxMode)
	}

	return nil
}

// stopAll closes every hardware source this ModeSwitch currently
// owns, leaving none running.
func (m *ModeSwitch) stopAll() {
	if m.pwm != nil {
		closePWMWatchers(m.pwm)
		m.pwm = nil
	}
	if m.ppm != nil {
		closePPMWatcher(m.ppm)
		m.ppm = nil
	}
	if m.serial != nil {
		_ = m.serial.Close()
		m.serial = nil
	}
}

// Stop shuts down every hardware source without starting a
// replacement. Used on program exit.
func (m *ModeSwitch) Stop() {
	m.stopAll()
}
