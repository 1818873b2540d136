package log

import (
	"io"
	"log/slog"

	cblog "github.com/charmbracelet/log"
)

// SetupPrettyLogger installs a charmbracelet/log handler writing to w as the
// slog default and returns it so callers can adjust the level.
func SetupPrettyLogger(w io.Writer) *cblog.Logger {
	logHandler := cblog.NewWithOptions(
		w,
		cblog.Options{
			Level:           cblog.WarnLevel,
			ReportTimestamp: true,
			ReportCaller:    false,
		},
	)
	slog.SetDefault(slog.New(logHandler))

	return logHandler
}

// LevelFor maps the --debug and --verbose flags to a log level.
func LevelFor(debug, verbose bool) cblog.Level {
	switch {
	case debug:
		return cblog.DebugLevel
	case verbose:
		return cblog.InfoLevel
	default:
		return cblog.WarnLevel
	}
}
