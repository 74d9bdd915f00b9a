package rxcore

/*------------------------------------------------------------------
 *
 * Purpose:	One structured, leveled logger shared by every command
 *		in this module.
 *
 *------------------------------------------------------------------*/

import (
	"os"

	"github.com/charmbracelet/log"
)

// Log is the package-wide logger, writing to stderr. Commands
// reconfigure its level via SetLogLevel; library code just calls
// Log.Debug/Info/Warn/Error.
var Log = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05.000",
})

// SetLogLevel parses a level name (debug, info, warn, error) and
// applies it to Log, defaulting to info on an unrecognized name.
func SetLogLevel(name string) {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		lvl = log.InfoLevel
	}
	Log.SetLevel(lvl)
}
