package shim

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aspect-build/rules-py/pkg/venv"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RunfilesInterpreter identifies an interpreter that is part of the
// runfiles tree.
type RunfilesInterpreter struct {
	// Runfiles path of the interpreter.
	Path string
	// Repository from which Path is resolved, for the purpose of
	// applying the repo mapping.
	Repo string
}

// PyCfg contains the settings of a virtual environment that are
// relevant to the shim.
type PyCfg struct {
	VersionInfo string
	// If set, the interpreter is obtained from the runfiles tree.
	// Otherwise it is searched for in $PATH.
	Runfiles                *RunfilesInterpreter
	IncludeUserSitePackages bool
}

// ExternalVersion returns the "X.Y" version of the interpreter that
// is searched for in $PATH.
func (c *PyCfg) ExternalVersion() (string, error) {
	parts := strings.Split(c.VersionInfo, ".")
	if len(parts) < 2 {
		return "", status.Errorf(codes.InvalidArgument, "Interpreter version %#v does not have a major and minor component", c.VersionInfo)
	}
	for _, part := range parts[:2] {
		if _, err := strconv.ParseUint(part, 10, 32); err != nil {
			return "", status.Errorf(codes.InvalidArgument, "Interpreter version %#v does not have a numeric major and minor component", c.VersionInfo)
		}
	}
	return parts[0] + "." + parts[1], nil
}

// ParsePyCfg parses the contents of pyvenv.cfg. Lines without an equals
// sign and unknown keys are ignored.
func ParsePyCfg(r io.Reader) (*PyCfg, error) {
	values := map[string]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if key, value, ok := strings.Cut(scanner.Text(), "="); ok {
			values[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, util.StatusWrapWithCode(err, codes.Internal, "Failed to read configuration")
	}

	versionInfo, ok := values[venv.ConfigKeyVersionInfo]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "No interpreter version specified")
	}
	cfg := &PyCfg{VersionInfo: versionInfo}

	interpreterPath, hasInterpreterPath := values[venv.ConfigKeyRunfilesInterpreter]
	repo, hasRepo := values[venv.ConfigKeyRunfilesRepo]
	switch {
	case hasInterpreterPath && hasRepo:
		cfg.Runfiles = &RunfilesInterpreter{
			Path: interpreterPath,
			Repo: repo,
		}
	case hasInterpreterPath || hasRepo:
		return nil, status.Error(codes.InvalidArgument, "Runfiles interpreter incompletely configured")
	}

	includeUserSitePackages, ok := values[venv.ConfigKeyIncludeUserSitePackages]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "User site packages flag not set")
	}
	var err error
	cfg.IncludeUserSitePackages, err = strconv.ParseBool(includeUserSitePackages)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "Invalid user site packages flag %#v", includeUserSitePackages)
	}
	return cfg, nil
}

// ReadPyCfg parses the pyvenv.cfg file at the root of a virtual
// environment.
func ReadPyCfg(root string) (*PyCfg, error) {
	cfgPath := filepath.Join(root, venv.ConfigFileName)
	f, err := os.Open(cfgPath)
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to open %#v", cfgPath)
	}
	defer f.Close()

	cfg, err := ParsePyCfg(f)
	if err != nil {
		return nil, util.StatusWrapf(err, "Invalid configuration file %#v", cfgPath)
	}
	return cfg, nil
}
