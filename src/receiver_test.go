package rxcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPWMEdgeCaptureProducesWidthAndPublishesOnSyncChannel(t *testing.T) {
	tb := NewTimebase()
	cfg := DefaultConfig()
	cfg.RxMode = ModePWM
	cfg.PWMSync = Aileron
	r := NewReceiver(tb, cfg)

	r.HandlePWMEdge(Aileron, true, 1000)
	r.HandlePWMEdge(Aileron, false, 1000+3750)

	snap := r.Snapshot()
	assert.True(t, snap.Interrupted)
	assert.Equal(t, uint16(3750), snap.Channels[Aileron])
}

func TestPWMEdgeCaptureIgnoredOutsidePWMMode(t *testing.T) {
	tb := NewTimebase()
	cfg := DefaultConfig()
	cfg.RxMode = ModePPM
	r := NewReceiver(tb, cfg)

	r.HandlePWMEdge(Aileron, true, 1000)
	r.HandlePWMEdge(Aileron, false, 1000+3750)

	snap := r.Snapshot()
	assert.False(t, snap.Interrupted)
	assert.Equal(t, uint16(0), snap.Channels[Aileron])
}

// TestPPMSyncGapResetsChannelIndex: a gap wider than
// ppmSyncPulseWidth is the frame boundary, not a channel pulse.
func TestPPMSyncGapResetsChannelIndex(t *testing.T) {
	tb := NewTimebase()
	cfg := DefaultConfig()
	cfg.RxMode = ModePPM
	r := NewReceiver(tb, cfg)

	now := uint16(0)
	r.HandlePPMEdge(now) // first edge, arbitrary gap from zero state

	now += ppmSyncPulseWidth + 500 // sync gap
	r.HandlePPMEdge(now)
	assert.Equal(t, 1, r.ppm.chanIdx) // reset to 0, then incremented once

	for i := 0; i < 8; i++ {
		now += 2000 // ordinary channel pulse width
		r.HandlePPMEdge(now)
	}
	snap := r.Snapshot()
	assert.True(t, snap.Interrupted)
	for ch := 0; ch < 8; ch++ {
		assert.Equal(t, uint16(2000), snap.Channels[ch])
	}
}

func TestPPMGlitchBelowMinPulseWidthResetsIndex(t *testing.T) {
	tb := NewTimebase()
	cfg := DefaultConfig()
	cfg.RxMode = ModePPM
	r := NewReceiver(tb, cfg)

	now := uint16(1000)
	r.HandlePPMEdge(now)
	now += 300 // below ppmMinPulseWidth: a glitch, not a channel pulse
	r.HandlePPMEdge(now)
	assert.Equal(t, 1, r.ppm.chanIdx)
}

func TestSerialFramerResetsOnGapAndPublishesOnAccept(t *testing.T) {
	tb := NewTimebase()
	cfg := DefaultConfig()
	cfg.RxMode = ModeXtreme
	r := NewReceiver(tb, cfg)

	frame := buildXtremeFrame(0x00, 0x0001, []uint16{1000})
	now := uint16(0)
	for _, b := range frame {
		r.HandleSerialByte(b, now)
		now += 100
	}

	snap := r.Snapshot()
	assert.True(t, snap.Interrupted)
	assert.Equal(t, uint16((1000*10)>>2), snap.Channels[0])
}

func TestRudderSharesPWMEdgeHandling(t *testing.T) {
	tb := NewTimebase()
	cfg := DefaultConfig()
	cfg.RxMode = ModePWM
	cfg.PWMSync = Rudder
	r := NewReceiver(tb, cfg)

	r.HandlePWMEdge(Rudder, true, 2000)
	r.HandlePWMEdge(Rudder, false, 2000+1500)

	snap := r.Snapshot()
	assert.True(t, snap.Interrupted)
	assert.Equal(t, uint16(1500), snap.Channels[Rudder])
}

func TestFrameRateIsRecordedOnGapRegardlessOfDecodeOutcome(t *testing.T) {
	tb := NewTimebase()
	cfg := DefaultConfig()
	cfg.RxMode = ModeXtreme
	r := NewReceiver(tb, cfg)

	// A single stray byte, then a long gap: the gap itself is the
	// frame-rate measurement, even though nothing ever decoded.
	r.HandleSerialByte(0xFF, 0)
	now := uint16(packetTimer + 1234)
	r.HandleSerialByte(0xFF, now)

	snap := r.Snapshot()
	assert.Equal(t, uint16(packetTimer+1234), snap.FrameRate)
	assert.False(t, snap.Interrupted)
}

func TestPPMEdgeClearsOverdueOnceAfterWatchdogLoss(t *testing.T) {
	tb := NewTimebase()
	cfg := DefaultConfig()
	cfg.RxMode = ModePPM
	r := NewReceiver(tb, cfg)

	r.ppm.maxChan = 8
	r.TickWatchdog(DefaultTimeoutTicks, DefaultTimeoutTicks)
	assert.True(t, r.watchdog.Overdue)
	assert.Equal(t, 8, r.ppm.maxChan) // unaffected until the next edge

	r.HandlePPMEdge(1000)
	assert.False(t, r.watchdog.Overdue)
	assert.Equal(t, 0, r.ppm.maxChan)

	// A second tick past threshold, with no further edges, must not
	// re-zero maxChan behind HandlePPMEdge's back: clearing Overdue is
	// one-shot per edge, not a periodic effect of the watchdog tick
	// itself.
	r.ppm.maxChan = 8
	r.TickWatchdog(DefaultTimeoutTicks, DefaultTimeoutTicks)
	assert.Equal(t, 8, r.ppm.maxChan)
}

func TestSerialFramerDropsStaleBytesAfterGap(t *testing.T) {
	tb := NewTimebase()
	cfg := DefaultConfig()
	cfg.RxMode = ModeXtreme
	r := NewReceiver(tb, cfg)

	// Two bytes of a frame, then a long gap, then a fresh valid frame.
	r.HandleSerialByte(0x00, 0)
	r.HandleSerialByte(0x00, 100)

	frame := buildXtremeFrame(0x00, 0x0001, []uint16{500})
	now := uint16(100 + packetTimer + 500)
	for _, b := range frame {
		r.HandleSerialByte(b, now)
		now += 100
	}

	snap := r.Snapshot()
	assert.True(t, snap.Interrupted)
	assert.Equal(t, uint16((500*10)>>2), snap.Channels[0])
}
