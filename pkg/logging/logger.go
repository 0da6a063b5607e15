package logging

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Logger is the interface through which the tools in this repository
// report progress, collisions and diagnostics. All output is written to
// stderr, as stdout may be consumed by the Python interpreter's caller.
type Logger interface {
	Debugf(format string, v ...any)
	Error(v ...any)
	Errorf(format string, v ...any)
	Info(v ...any)
	Infof(format string, v ...any)
	Warning(v ...any)
	Warningf(format string, v ...any)
}

// Color controls whether log output is decorated with escape sequences.
type Color int

const (
	Color_Auto Color = iota
	Color_Yes
	Color_No
)

// ParseColor converts the value of a --color flag to a Color.
func ParseColor(value string) (Color, error) {
	switch value {
	case "auto":
		return Color_Auto, nil
	case "yes", "true", "1":
		return Color_Yes, nil
	case "no", "false", "0":
		return Color_No, nil
	default:
		return Color_Auto, fmt.Errorf("color only accepts \"auto\", \"yes\" or \"no\", not %#v", value)
	}
}

// NewLogger creates a Logger that writes to stderr. Debug messages are
// only emitted if debug is set.
func NewLogger(color Color, debug bool) Logger {
	w := os.Stderr
	var escapeSequences *EscapeSequences
	switch color {
	case Color_Yes:
		escapeSequences = &VT100EscapeSequences
	case Color_No:
		escapeSequences = &NoEscapeSequences
	default:
		if term.IsTerminal(int(w.Fd())) {
			escapeSequences = &VT100EscapeSequences
		} else {
			escapeSequences = &NoEscapeSequences
		}
	}
	return NewConsoleLogger(w, escapeSequences, debug)
}
