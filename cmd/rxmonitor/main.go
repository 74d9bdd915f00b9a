/*------------------------------------------------------------------
 *
 * Purpose:   	Attach the decoding core to real hardware (GPIO lines for
 *		PWM/PPM, a serial device for the byte-oriented protocols)
 *		and print decoded channel vectors as they arrive.
 *
 * Usage:	rxmonitor [-c config-file] [-d gpiochip] [-s serial-device]
 *
 *---------------------------------------------------------------*/
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/openaero/rxcore/src"
)

func main() {
	var configFile = pflag.StringP("config-file", "c", "", "Configuration file.  Default: search rxcore.yaml, config/rxcore.yaml, /etc/rxcore/rxcore.yaml.")
	var chipName = pflag.StringP("gpio-chip", "d", "gpiochip0", "GPIO character device for PWM/PPM inputs.")
	var serialDevice = pflag.StringP("serial-device", "s", "/dev/ttyUSB0", "Serial device for S-BUS/Spektrum/MODE-B/SUMD.")
	var logLevel = pflag.StringP("log-level", "v", "info", "Log level: debug, info, warn, error.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "rxmonitor - decode RC input and print channel vectors\n\n")
		fmt.Fprintf(os.Stderr, "Usage: rxmonitor [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	rxcore.SetLogLevel(*logLevel)

	cfg, err := rxcore.LoadConfig(*configFile)
	if err != nil {
		rxcore.Log.Warn("using default config", "reason", err)
		cfg = rxcore.DefaultConfig()
	}

	tb := rxcore.NewTimebase()
	stopClock := make(chan struct{})
	defer close(stopClock)
	go tb.Drive(stopClock, 500*time.Microsecond)

	receiver := rxcore.NewReceiver(tb, cfg)
	sw := rxcore.NewModeSwitch(receiver, *chipName, *serialDevice)

	if err := sw.SetMode(cfg, tb); err != nil {
		rxcore.Log.Fatal("starting mode", "mode", cfg.RxMode, "err", err)
	}
	rxcore.Log.Info("decoding", "mode", cfg.RxMode)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	watchdogTicker := time.NewTicker(10 * time.Millisecond)
	defer watchdogTicker.Stop()
	printTicker := time.NewTicker(200 * time.Millisecond)
	defer printTicker.Stop()

	for {
		select {
		case <-sigCh:
			sw.Stop()
			return
		case <-watchdogTicker.C:
			receiver.TickWatchdog(uint16(10*rxcore.TicksPerSecond/1000), rxcore.DefaultTimeoutTicks)
		case <-printTicker.C:
			snap := receiver.Snapshot()
			rxcore.Log.Info("frame", "interrupted", snap.Interrupted, "rate", snap.FrameRate, "channels", snap.Channels)
		}
	}
}
