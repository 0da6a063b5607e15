package logging

// EscapeSequences that are emitted by the console logger to decorate
// the severity of a message. Debug messages are rendered in grey and
// warnings in yellow.
type EscapeSequences struct {
	Reset []byte

	Bold []byte

	Red    []byte
	Green  []byte
	Yellow []byte
	Grey   []byte
}

var (
	// NoEscapeSequences is used when stderr is not a terminal.
	NoEscapeSequences    = EscapeSequences{}
	VT100EscapeSequences = EscapeSequences{
		Reset: []byte("\x1b[m"),

		Bold: []byte("\x1b[1m"),

		Red:    []byte("\x1b[31m"),
		Green:  []byte("\x1b[32m"),
		Yellow: []byte("\x1b[33m"),
		Grey:   []byte("\x1b[90m"),
	}
)
