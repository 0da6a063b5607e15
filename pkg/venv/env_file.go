package venv

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/buildbarn/bb-storage/pkg/util"
	"github.com/kballard/go-shellquote"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// EnvironmentVariable that is exported by the activate script of a
// virtual environment.
type EnvironmentVariable struct {
	Name  string
	Value string
}

var environmentVariableName = regexp.MustCompile("^[A-Za-z_][A-Za-z0-9_]*$")

// ParseEnvFile parses a file containing environment variable
// assignments, one or more per line. Values may be quoted using shell
// syntax. Empty lines, comments and "export" keywords are permitted.
func ParseEnvFile(r io.Reader) ([]EnvironmentVariable, error) {
	var variables []EnvironmentVariable
	scanner := bufio.NewScanner(r)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words, err := shellquote.Split(line)
		if err != nil {
			return nil, util.StatusWrapfWithCode(err, codes.InvalidArgument, "Line %d", lineNumber)
		}
		if len(words) > 0 && words[0] == "export" {
			words = words[1:]
		}
		for _, word := range words {
			name, value, ok := strings.Cut(word, "=")
			if !ok || !environmentVariableName.MatchString(name) {
				return nil, status.Errorf(codes.InvalidArgument, "Line %d: %#v is not an environment variable assignment", lineNumber, word)
			}
			variables = append(variables, EnvironmentVariable{
				Name:  name,
				Value: value,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, util.StatusWrapWithCode(err, codes.Internal, "Failed to read environment variables")
	}
	return variables, nil
}
