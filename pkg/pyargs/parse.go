package pyargs

import (
	"strings"
)

// Arguments holds the interpreter options of a Python command line.
// Flags that control the interpreter are parsed. Everything starting
// at the script name, or following -c or -m, is stored in
// RemainingArgs.
type Arguments struct {
	BytesWarningLevel  int
	DontWriteBytecode  bool
	DebugParser        bool
	IgnoreEnvironment  bool
	Help               bool
	LongHelp           []string
	Inspect            bool
	Isolate            bool
	SafePath           bool
	NoUserSite         bool
	NoImportSite       bool
	Unbuffered         bool
	Quiet              bool
	SkipFirstLine      bool
	OptimizeLevel      int
	Verbosity          int
	Version            int
	Warnings           []string
	ExtendedOptions    []string
	CheckHashBasedPycs string
	Command            *string
	Module             *string
	RemainingArgs      []string
}

// Parse the interpreter options of a Python command line. The
// provided arguments should not include the program name.
func Parse(args []string) (*Arguments, error) {
	var a Arguments
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			a.RemainingArgs = args[i:]
			return &a, nil
		}

		if strings.HasPrefix(arg, "--") {
			name, value, hasValue := strings.Cut(arg[2:], "=")
			flagName := "--" + name
			switch name {
			case "check-hash-based-pycs":
				if !hasValue {
					if i+1 >= len(args) {
						return nil, FlagMissingValueError{Flag: flagName}
					}
					i++
					value = args[i]
				}
				a.CheckHashBasedPycs = value
				continue
			case "help":
				a.Help = true
			case "help-all", "help-env", "help-xoptions":
				a.LongHelp = append(a.LongHelp, flagName)
			case "version":
				a.Version++
			default:
				return nil, FlagNotRecognizedError{Flag: flagName}
			}
			if hasValue {
				return nil, FlagUnexpectedValueError{Flag: flagName}
			}
			continue
		}

		if len(arg) < 2 || arg[0] != '-' {
			// Script name, or "-" to read from stdin.
			a.RemainingArgs = args[i:]
			return &a, nil
		}

	ParseShortFlags:
		for j := 1; j < len(arg); j++ {
			switch c := arg[j]; c {
			case 'b':
				a.BytesWarningLevel++
			case 'B':
				a.DontWriteBytecode = true
			case 'd':
				a.DebugParser = true
			case 'E':
				a.IgnoreEnvironment = true
			case 'h', '?':
				a.Help = true
			case 'i':
				a.Inspect = true
			case 'I':
				a.Isolate = true
			case 'O':
				a.OptimizeLevel++
			case 'P':
				a.SafePath = true
			case 'q':
				a.Quiet = true
			case 's':
				a.NoUserSite = true
			case 'S':
				a.NoImportSite = true
			case 'u':
				a.Unbuffered = true
			case 'v':
				a.Verbosity++
			case 'V':
				a.Version++
			case 'x':
				a.SkipFirstLine = true
			case 'c', 'm', 'W', 'X':
				// Flags taking a value accept it either attached
				// ("-Wignore") or as the next argument.
				var value string
				if j+1 < len(arg) {
					value = arg[j+1:]
				} else if i+1 < len(args) {
					i++
					value = args[i]
				} else {
					return nil, FlagMissingValueError{Flag: "-" + string(c)}
				}
				switch c {
				case 'c':
					a.Command = &value
					a.RemainingArgs = args[i+1:]
					return &a, nil
				case 'm':
					a.Module = &value
					a.RemainingArgs = args[i+1:]
					return &a, nil
				case 'W':
					a.Warnings = append(a.Warnings, value)
				case 'X':
					a.ExtendedOptions = append(a.ExtendedOptions, value)
				}
				break ParseShortFlags
			default:
				return nil, FlagNotRecognizedError{Flag: "-" + string(c)}
			}
		}
	}
	return &a, nil
}

func appendCounted(argv []string, flag byte, count int) []string {
	switch count {
	case 0:
		return argv
	case 1:
		return append(argv, "-"+string(flag))
	default:
		return append(argv, "-"+string([]byte{flag, flag}))
	}
}

func appendBool(argv []string, flag byte, isSet bool) []string {
	if isSet {
		return append(argv, "-"+string(flag))
	}
	return argv
}

// Format the arguments into a command line that can be passed to an
// interpreter living inside a virtual environment.
//
// -E is never emitted, as the interpreter must honor the environment
// variables set by the shim. -I is replaced by -s, and -s is emitted
// unconditionally so that packages installed in the user's site
// directory never leak into the virtual environment. All interpreter
// options are emitted before -c, -m or the script name.
func (a *Arguments) Format() []string {
	var argv []string
	argv = appendCounted(argv, 'b', a.BytesWarningLevel)
	argv = appendBool(argv, 'B', a.DontWriteBytecode)
	argv = appendBool(argv, 'd', a.DebugParser)
	argv = appendBool(argv, 'h', a.Help)
	argv = append(argv, a.LongHelp...)
	argv = appendBool(argv, 'i', a.Inspect)
	argv = appendBool(argv, 'P', a.SafePath)
	argv = append(argv, "-s")
	argv = appendBool(argv, 'S', a.NoImportSite)
	argv = appendBool(argv, 'u', a.Unbuffered)
	argv = appendBool(argv, 'q', a.Quiet)
	argv = appendBool(argv, 'x', a.SkipFirstLine)
	argv = appendCounted(argv, 'O', a.OptimizeLevel)
	for i := 0; i < a.Verbosity; i++ {
		argv = append(argv, "-v")
	}
	argv = appendCounted(argv, 'V', a.Version)
	for _, warning := range a.Warnings {
		argv = append(argv, "-W", warning)
	}
	for _, option := range a.ExtendedOptions {
		argv = append(argv, "-X", option)
	}
	if a.CheckHashBasedPycs != "" {
		argv = append(argv, "--check-hash-based-pycs", a.CheckHashBasedPycs)
	}
	if a.Command != nil {
		argv = append(argv, "-c", *a.Command)
	}
	if a.Module != nil {
		argv = append(argv, "-m", *a.Module)
	}
	return append(argv, a.RemainingArgs...)
}

// Reparse translates the command line of an invocation of the
// virtual environment's interpreter to the command line of the real
// interpreter. The program name is preserved.
func Reparse(argv []string) ([]string, error) {
	if len(argv) == 0 {
		return nil, nil
	}
	a, err := Parse(argv[1:])
	if err != nil {
		return nil, err
	}
	return append([]string{argv[0]}, a.Format()...), nil
}
