// Package logging configures the zerolog logger shared by every devkit
// component. Console output goes to stderr; a copy of every record is
// appended to a log file under the XDG state directory.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/devkit-labs/devkit/internal/branding"
)

// Setup configures the global logger for the given verbosity:
// 0 warn, 1 info, 2 debug, 3 or more trace.
func Setup(verbosity int) {
	SetupWithWriter(verbosity, os.Stderr, true)
}

// SetupWithWriter is Setup with an explicit console writer. When withFile is
// false no log file is opened.
func SetupWithWriter(verbosity int, console io.Writer, withFile bool) {
	zerolog.SetGlobalLevel(levelFor(verbosity))

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(console),
	}}

	var fileErr error
	var logFile string
	if withFile {
		logFile, fileErr = FilePath()
		if fileErr == nil {
			var f *os.File
			f, fileErr = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if fileErr == nil {
				writers = append(writers, f)
			}
		}
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", logFile).Msg("Failed to open log file, logging to console only")
	}
	log.Debug().Int("verbosity", verbosity).Str("logFile", logFile).Msg("Logger initialized")
}

// FilePath returns the log file location, creating its parent directory.
func FilePath() (string, error) {
	name := branding.CLIName()
	return xdg.StateFile(filepath.Join(name, name+".log"))
}

// GetLogger returns a child of the global logger tagged with a component name.
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func levelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
