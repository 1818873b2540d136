package log

import (
	"io"
	"log"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/yaklabco/ripple/pkg/ui"
)

// ConsolePrefix is prepended to every console line.
const ConsolePrefix = "[RIPPLE] "

// NewConsoleLogger returns an unstructured logger for echoing the commands
// ripple runs in `-v`/`--verbose` mode.
func NewConsoleLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.New(w, lipgloss.NewStyle().Foreground(ui.GetFangScheme().Flag).Render(ConsolePrefix), 0)
}
