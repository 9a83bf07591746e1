package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Verbose enables debug output when true
var Verbose bool

var logger = newLogger(os.Stderr, zerolog.InfoLevel)

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Setup configures the process logger. An explicit level wins over Verbose.
func Setup(w io.Writer, verbose bool, level string) error {
	Verbose = verbose

	lvl := zerolog.InfoLevel
	if verbose {
		lvl = zerolog.DebugLevel
	}
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	logger = newLogger(w, lvl)
	return nil
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// Debugf prints debug messages when Verbose is true
func Debugf(format string, args ...any) {
	if Verbose {
		logger.Debug().Msgf(format, args...)
	}
}
