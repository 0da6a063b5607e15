package venv

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Keys in pyvenv.cfg that are not part of the standard format. The
// runfiles keys are only written when the interpreter does not exist
// at build time and an interpreter shim is installed instead.
const (
	ConfigKeyVersionInfo             = "version_info"
	ConfigKeyRunfilesInterpreter     = "aspect-runfiles-interpreter"
	ConfigKeyRunfilesRepo            = "aspect-runfiles-repo"
	ConfigKeyIncludeUserSitePackages = "aspect-include-user-site-packages"
)

// ConfigFileName is the name of the file at the root of a virtual
// environment that marks it as such.
const ConfigFileName = "pyvenv.cfg"

// Options for CreateEmptyVenv.
type Options struct {
	// Name of the repository owning the interpreter.
	Repo string
	// Path of the interpreter. If it doesn't exist on disk, it is
	// interpreted as a runfiles path that is resolved by the shim at
	// run time.
	Interpreter string
	Version     PythonVersionInfo
	// Path at which the virtual environment is created. Relative
	// paths are resolved against the working directory.
	Location string
	// Optional file containing environment variables that the
	// activate script should set.
	EnvFile string
	// Optional interpreter shim that is installed as bin/python.
	Shim string
	// Name displayed in the shell prompt by the activate script.
	// Defaults to the base name of the location.
	Prompt                    string
	Debug                     bool
	IncludeSystemSitePackages bool
	IncludeUserSitePackages   bool
}

func pathExists(p string) (bool, error) {
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func copyExecutable(source, destination string) error {
	r, err := os.Open(source)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := os.OpenFile(destination, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	// Sandboxed inputs are not guaranteed to be executable, and
	// the mode passed to OpenFile is subject to the umask.
	return os.Chmod(destination, 0o755)
}

// CreateEmptyVenv lays out the skeleton of a virtual environment,
// consisting of pyvenv.cfg, an interpreter, an activate script and a
// site-packages directory containing a startup hook. Any existing
// file or directory at the location is removed first.
//
// The layout is as follows:
//
//	pyvenv.cfg
//	bin/
//	    activate
//	    python                    copy of the interpreter or the shim
//	    python${MAJOR}            -> python
//	    python${MAJOR}.${MINOR}   -> python
//	lib/python${MAJOR}.${MINOR}/site-packages/
//	    _virtualenv.py
//	    _virtualenv.pth
func CreateEmptyVenv(options *Options) (*Virtualenv, error) {
	interpreterExists, err := pathExists(options.Interpreter)
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to stat interpreter %#v", options.Interpreter)
	}
	if !interpreterExists && options.Shim == "" {
		return nil, status.Errorf(codes.FailedPrecondition, "Interpreter %#v does not exist, and no interpreter shim was provided", options.Interpreter)
	}

	var environmentVariables []EnvironmentVariable
	if options.EnvFile != "" {
		f, err := os.Open(options.EnvFile)
		if err != nil {
			return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to open environment variables file %#v", options.EnvFile)
		}
		environmentVariables, err = ParseEnvFile(f)
		f.Close()
		if err != nil {
			return nil, util.StatusWrapf(err, "Invalid environment variables file %#v", options.EnvFile)
		}
	}

	homeDirectory, err := filepath.Abs(options.Location)
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to make venv location %#v absolute", options.Location)
	}
	v := NewVirtualenv(homeDirectory, options.Version)

	if err := os.RemoveAll(v.HomeDirectory); err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to remove existing venv %#v", v.HomeDirectory)
	}
	if err := os.MkdirAll(v.HomeDirectory, 0o755); err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to create venv directory %#v", v.HomeDirectory)
	}

	// pyvenv.cfg.
	configParameters := pyvenvConfigParameters{
		VersionInfo:               v.VersionInfo,
		IncludeSystemSitePackages: options.IncludeSystemSitePackages,
		IncludeUserSitePackages:   options.IncludeUserSitePackages,
	}
	if !interpreterExists {
		configParameters.RunfilesInterpreter = options.Interpreter
		configParameters.RunfilesRepo = options.Repo
	}
	var config bytes.Buffer
	if err := templates.ExecuteTemplate(&config, "pyvenv.cfg.tmpl", &configParameters); err != nil {
		return nil, util.StatusWrapWithCode(err, codes.Internal, "Failed to render pyvenv.cfg")
	}
	configPath := filepath.Join(v.HomeDirectory, ConfigFileName)
	if err := os.WriteFile(configPath, config.Bytes(), 0o644); err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to write %#v", configPath)
	}

	// Interpreter and links pointing to it.
	if err := os.MkdirAll(v.BinDirectory, 0o755); err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to create venv bin directory %#v", v.BinDirectory)
	}
	if options.Shim != "" {
		if err := copyExecutable(options.Shim, v.PythonBinary); err != nil {
			return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to install interpreter shim %#v", options.Shim)
		}
	} else {
		if err := copyExecutable(options.Interpreter, v.PythonBinary); err != nil {
			return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to install interpreter %#v", options.Interpreter)
		}
	}
	for _, name := range []string{
		"python" + strconv.Itoa(v.VersionInfo.Major),
		"python" + v.VersionInfo.MajorMinor(),
	} {
		linkPath := filepath.Join(v.BinDirectory, name)
		target, err := filepath.Rel(filepath.Dir(linkPath), v.PythonBinary)
		if err != nil {
			return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to compute target of %#v", linkPath)
		}
		if err := os.Symlink(target, linkPath); err != nil {
			return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to create symbolic link %#v", linkPath)
		}
	}

	// Activate script.
	prompt := options.Prompt
	if prompt == "" {
		prompt = filepath.Base(v.HomeDirectory)
	}
	var activate bytes.Buffer
	if err := templates.ExecuteTemplate(&activate, "activate.tmpl", &activateParameters{
		Debug:                options.Debug,
		Prompt:               prompt,
		EnvironmentVariables: environmentVariables,
	}); err != nil {
		return nil, util.StatusWrapWithCode(err, codes.Internal, "Failed to render activate script")
	}
	activatePath := filepath.Join(v.BinDirectory, "activate")
	if err := os.WriteFile(activatePath, activate.Bytes(), 0o644); err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to write %#v", activatePath)
	}

	// Site directory with the startup hook.
	if err := os.MkdirAll(v.SiteDirectory, 0o755); err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to create venv site directory %#v", v.SiteDirectory)
	}
	for name, contents := range map[string][]byte{
		"_virtualenv.py":  virtualenvBootstrap,
		"_virtualenv.pth": []byte(virtualenvBootstrapPth),
	} {
		p := filepath.Join(v.SiteDirectory, name)
		if err := os.WriteFile(p, contents, 0o644); err != nil {
			return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to write %#v", p)
		}
	}
	return v, nil
}
