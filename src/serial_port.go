package rxcore

/*------------------------------------------------------------------
 *
 * Purpose:	Serial port transport for the byte-oriented RC
 *		protocols.
 *
 * Description:	Most transports only need a baud rate change, which
 *		github.com/pkg/term's Term.SetSpeed covers directly. S-BUS
 *		additionally needs even parity and two stop bits, which
 *		term.Term doesn't expose; for that one case the device is
 *		opened and configured directly through golang.org/x/sys/unix
 *		termios instead.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/pkg/term"
	"golang.org/x/sys/unix"
)

// baudFor returns the line speed a serial mode expects. Every
// supported transport except S-BUS runs at 115200 8N1; S-BUS runs at
// 100000 8E2.
func baudFor(mode Mode) int {
	if mode == ModeSBUS {
		return 100000
	}
	return 115200
}

// serialDevice is the subset of *term.Term and *os.File this source
// needs; it lets the two open paths below share one reader.
type serialDevice interface {
	Read(b []byte) (int, error)
	Close() error
}

// SerialSource reads one byte-oriented RC transport from a serial
// device and feeds it to a Receiver.
type SerialSource struct {
	dev  serialDevice
	scan *parmrkScanner // non-nil only when PARMRK marking is enabled
}

// OpenSerialSource opens device for mode, configuring its line
// discipline accordingly, and returns a source ready for Run.
func OpenSerialSource(device string, mode Mode) (*SerialSource, error) {
	if mode == ModeSBUS {
		dev, err := openSBUSDevice(device)
		if err != nil {
			return nil, err
		}
		return &SerialSource{dev: dev, scan: &parmrkScanner{}}, nil
	}

	fd, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("rxcore: opening %s: %w", device, err)
	}
	if err := fd.SetSpeed(baudFor(mode)); err != nil {
		_ = fd.Close()
		return nil, fmt.Errorf("rxcore: setting speed on %s: %w", device, err)
	}
	return &SerialSource{dev: fd}, nil
}

// openSBUSDevice opens device raw and configures 100000 8E2 directly:
// even parity and two stop bits, which S-BUS requires and term.Term
// has no option for.
func openSBUSDevice(device string) (*os.File, error) {
	f, err := os.OpenFile(device, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("rxcore: opening %s: %w", device, err)
	}

	fd := int(f.Fd())
	ts, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rxcore: reading termios on %s: %w", device, err)
	}

	unixTermiosRaw(ts)
	ts.Cflag |= unix.PARENB | unix.CSTOPB
	ts.Cflag &^= unix.PARODD
	// Parity and framing errors must be filtered out, not decoded.
	// INPCK enables input parity checking and PARMRK marks each bad
	// byte inline as 0xFF 0x00 <byte>; parmrkScanner strips those
	// sequences before the bytes reach the framer.
	ts.Iflag |= unix.INPCK | unix.PARMRK
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, ts); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rxcore: configuring termios on %s: %w", device, err)
	}
	if err := setSBUSSpeed(fd, ts); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rxcore: setting S-BUS speed on %s: %w", device, err)
	}

	return f, nil
}

// unixTermiosRaw puts ts into raw mode in place, equivalent to cfmakeraw.
func unixTermiosRaw(ts *unix.Termios) {
	ts.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	ts.Oflag &^= unix.OPOST
	ts.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	ts.Cflag &^= unix.CSIZE | unix.PARENB
	ts.Cflag |= unix.CS8
	ts.Cc[unix.VMIN] = 1
	ts.Cc[unix.VTIME] = 0
}

// setSBUSSpeed configures the nonstandard 100000bps rate S-BUS uses.
// 100000 isn't one of the termios B-constants, so it's set via the
// BOTHER custom-rate extension (Ispeed/Ospeed) instead of Cflag's
// fixed speed bits.
func setSBUSSpeed(fd int, ts *unix.Termios) error {
	ts.Ispeed = 100000
	ts.Ospeed = 100000
	ts.Cflag &^= unix.CBAUD
	ts.Cflag |= unix.BOTHER
	return unix.IoctlSetTermios(fd, unix.TCSETS, ts)
}

// Run reads bytes from the port until it is closed or read returns an
// error, handing each one to r.HandleSerialByte stamped with tb's
// current tick. It blocks; callers run it in its own goroutine.
func (s *SerialSource) Run(r *Receiver, tb *Timebase) error {
	buf := make([]byte, 1)
	for {
		n, err := s.dev.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		b := buf[0]
		if s.scan != nil {
			var ok bool
			if b, ok = s.scan.scan(b); !ok {
				continue
			}
		}
		r.HandleSerialByte(b, tb.Tick())
	}
}

// parmrkScanner strips PARMRK error marking from an input stream: a
// byte received with a parity or framing error arrives as the three
// byte sequence 0xFF 0x00 <byte>, a line break as 0xFF 0x00 0x00, and
// a literal 0xFF data byte is escaped as 0xFF 0xFF. Bad bytes are
// discarded with no state transition; everything else passes through.
type parmrkScanner struct {
	state parmrkState
}

type parmrkState int

const (
	parmrkData parmrkState = iota
	parmrkMark // saw 0xFF, deciding between escape and error mark
	parmrkDrop // saw 0xFF 0x00, next byte is the bad one
)

// scan consumes one raw byte and reports whether out carries a good
// data byte to deliver.
func (s *parmrkScanner) scan(b byte) (out byte, ok bool) {
	switch s.state {
	case parmrkMark:
		if b == 0xFF {
			s.state = parmrkData
			return 0xFF, true
		}
		if b == 0x00 {
			s.state = parmrkDrop
			return 0, false
		}
		// Not a well-formed mark; pass the byte through.
		s.state = parmrkData
		return b, true
	case parmrkDrop:
		s.state = parmrkData
		return 0, false
	default:
		if b == 0xFF {
			s.state = parmrkMark
			return 0, false
		}
		return b, true
	}
}

// Close releases the underlying serial device.
func (s *SerialSource) Close() error {
	return s.dev.Close()
}
