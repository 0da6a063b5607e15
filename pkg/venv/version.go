package venv

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PythonVersionInfo is the version of the interpreter contained in a
// virtual environment. Parts of the layout of a virtual environment,
// such as the name of the site-packages directory, depend on it.
type PythonVersionInfo struct {
	Major int
	Minor int
	Patch int
}

// ParsePythonVersionInfo parses a version string of the form "X.Y" or
// "X.Y.Z". The patch version defaults to zero.
func ParsePythonVersionInfo(s string) (PythonVersionInfo, error) {
	fields := strings.Split(s, ".")
	if len(fields) != 2 && len(fields) != 3 {
		return PythonVersionInfo{}, status.Errorf(codes.InvalidArgument, "Python version %#v is not of the form X.Y or X.Y.Z", s)
	}
	var parts [3]int
	for i, field := range fields {
		n, err := strconv.ParseUint(field, 10, 16)
		if err != nil {
			return PythonVersionInfo{}, status.Errorf(codes.InvalidArgument, "Python version %#v contains invalid component %#v", s, field)
		}
		parts[i] = int(n)
	}
	return PythonVersionInfo{
		Major: parts[0],
		Minor: parts[1],
		Patch: parts[2],
	}, nil
}

func (v PythonVersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MajorMinor returns the version in "X.Y" form, as used in the names of
// interpreter binaries and library directories.
func (v PythonVersionInfo) MajorMinor() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
