package shared

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger configures a charmbracelet logger writing to w.
func SetupLogger(debug bool, w io.Writer) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}

// ParseLevel maps a config level name onto debug logging.
func ParseLevel(name string) (bool, error) {
	level, err := log.ParseLevel(name)
	if err != nil {
		return false, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level <= log.DebugLevel, nil
}

// SetupFileLogger logs to path, truncating it, for runs where the terminal
// is owned by the TUI. The returned closer closes the file.
func SetupFileLogger(debug bool, path string) (*log.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return SetupLogger(debug, f), f, nil
}
