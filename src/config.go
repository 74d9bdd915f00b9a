package rxcore

/*------------------------------------------------------------------
 *
 * Purpose:	Read the receiver configuration snapshot: mode, channel
 *		order permutation, and PWM sync channel.
 *
 * Description:	Configuration is owned by an external control loop in
 *		the real system; this module only knows how to load a
 *		snapshot of it from a YAML file, checked against a fixed
 *		list of search locations.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// searchLocations lists where a config file may be found, checked in
// order.
var searchLocations = []string{
	"rxcore.yaml",
	"config/rxcore.yaml",
	"/etc/rxcore/rxcore.yaml",
}

// rawConfig is the on-disk YAML representation. Mode and PWMSync are
// read as strings for human-friendly config files and translated into
// their internal enum values by rawConfig.toConfig.
type rawConfig struct {
	Mode         string `yaml:"mode"`
	ChannelOrder []int  `yaml:"channel_order"`
	PWMSync      string `yaml:"pwm_sync"`
}

// Config is the read-only snapshot consumed by the core. It may change
// between frames; callers swap it in whole via ModeSwitch.SetMode
// rather than mutating a shared value in place.
type Config struct {
	RxMode       Mode
	ChannelOrder [MaxChannels]int // source-index -> logical-index
	PWMSync      Channel
}

// DefaultConfig returns a Config with the identity channel order and
// PWM sync on aileron.
func DefaultConfig() Config {
	var c Config
	c.RxMode = ModePWM
	c.PWMSync = Aileron
	for i := range c.ChannelOrder {
		c.ChannelOrder[i] = i
	}
	return c
}

// LoadConfig reads a Config from the first of path (if non-empty) or
// searchLocations that exists. If that file does not parse, its error
// is returned; later locations are not tried.
func LoadConfig(path string) (Config, error) {
	var candidates []string
	if path != "" {
		candidates = []string{path}
	} else {
		candidates = searchLocations
	}

	var lastErr error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate) //nolint:gosec
		if err != nil {
			lastErr = err
			continue
		}
		var raw rawConfig
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("rxcore: parsing %s: %w", candidate, err)
		}
		return raw.toConfig()
	}
	return Config{}, fmt.Errorf("rxcore: no config file found: %w", lastErr)
}

func (r rawConfig) toConfig() (Config, error) {
	c := DefaultConfig()

	if r.Mode != "" {
		mode, ok := parseMode(r.Mode)
		if !ok {
			return Config{}, fmt.Errorf("rxcore: unknown mode %q", r.Mode)
		}
		c.RxMode = mode
	}

	if r.PWMSync != "" {
		ch, ok := parsePWMSync(r.PWMSync)
		if !ok {
			return Config{}, fmt.Errorf("rxcore: unknown pwm_sync %q", r.PWMSync)
		}
		c.PWMSync = ch
	}

	if len(r.ChannelOrder) > 0 {
		if len(r.ChannelOrder) != MaxChannels {
			return Config{}, fmt.Errorf("rxcore: channel_order must have %d entries, got %d", MaxChannels, len(r.ChannelOrder))
		}
		copy(c.ChannelOrder[:], r.ChannelOrder)
	}

	return c, nil
}

// ParseMode translates a config/CLI mode name into its Mode value.
func ParseMode(s string) (Mode, bool) {
	return parseMode(s)
}

func parseMode(s string) (Mode, bool) {
	switch s {
	case "PWM":
		return ModePWM, true
	case "PPM", "CPPM":
		return ModePPM, true
	case "XTREME":
		return ModeXtreme, true
	case "SBUS", "S-BUS":
		return ModeSBUS, true
	case "SPEKTRUM":
		return ModeSpektrum, true
	case "MODE-B", "MODEB":
		return ModeModeB, true
	case "SUMD":
		return ModeSUMD, true
	default:
		return 0, false
	}
}

func parsePWMSync(s string) (Channel, bool) {
	switch s {
	case "AILERON":
		return Aileron, true
	case "ELEVATOR":
		return Elevator, true
	case "THROTTLE":
		return Throttle, true
	case "GEAR":
		return Gear, true
	case "RUDDER":
		return Rudder, true
	default:
		return 0, false
	}
}
