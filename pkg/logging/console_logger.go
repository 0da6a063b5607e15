package logging

import (
	"bytes"
	"fmt"
	"io"
)

type consoleLogger struct {
	w               io.Writer
	escapeSequences *EscapeSequences
	debug           bool
}

// NewConsoleLogger creates a Logger that writes human readable lines,
// prefixed with their severity, to a writer.
func NewConsoleLogger(w io.Writer, escapeSequences *EscapeSequences, debug bool) Logger {
	return &consoleLogger{
		w:               w,
		escapeSequences: escapeSequences,
		debug:           debug,
	}
}

func (l *consoleLogger) writePrefix(b *bytes.Buffer, color []byte, bold bool, prefix string) {
	if bold {
		b.Write(l.escapeSequences.Bold)
	}
	b.Write(color)
	b.WriteString(prefix)
	b.Write(l.escapeSequences.Reset)
}

func (l *consoleLogger) Debugf(format string, v ...any) {
	if !l.debug {
		return
	}

	var b bytes.Buffer
	l.writePrefix(&b, l.escapeSequences.Grey, false, "DEBUG: ")
	fmt.Fprintf(&b, format, v...)
	b.Write([]byte{'\n'})

	l.w.Write(b.Bytes())
}

func (l *consoleLogger) Error(v ...any) {
	var b bytes.Buffer
	l.writePrefix(&b, l.escapeSequences.Red, true, "ERROR: ")
	fmt.Fprint(&b, v...)
	b.Write([]byte{'\n'})

	l.w.Write(b.Bytes())
}

func (l *consoleLogger) Errorf(format string, v ...any) {
	var b bytes.Buffer
	l.writePrefix(&b, l.escapeSequences.Red, true, "ERROR: ")
	fmt.Fprintf(&b, format, v...)
	b.Write([]byte{'\n'})

	l.w.Write(b.Bytes())
}

func (l *consoleLogger) Info(v ...any) {
	var b bytes.Buffer
	l.writePrefix(&b, l.escapeSequences.Green, false, "INFO: ")
	fmt.Fprint(&b, v...)
	b.Write([]byte{'\n'})

	l.w.Write(b.Bytes())
}

func (l *consoleLogger) Infof(format string, v ...any) {
	var b bytes.Buffer
	l.writePrefix(&b, l.escapeSequences.Green, false, "INFO: ")
	fmt.Fprintf(&b, format, v...)
	b.Write([]byte{'\n'})

	l.w.Write(b.Bytes())
}

func (l *consoleLogger) Warning(v ...any) {
	var b bytes.Buffer
	l.writePrefix(&b, l.escapeSequences.Yellow, true, "WARNING: ")
	fmt.Fprint(&b, v...)
	b.Write([]byte{'\n'})

	l.w.Write(b.Bytes())
}

func (l *consoleLogger) Warningf(format string, v ...any) {
	var b bytes.Buffer
	l.writePrefix(&b, l.escapeSequences.Yellow, true, "WARNING: ")
	fmt.Fprintf(&b, format, v...)
	b.Write([]byte{'\n'})

	l.w.Write(b.Bytes())
}
