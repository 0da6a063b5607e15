package shim

import (
	"path/filepath"
	"syscall"

	"github.com/aspect-build/rules-py/pkg/logging"
	"github.com/aspect-build/rules-py/pkg/pyargs"
	"github.com/aspect-build/rules-py/pkg/runfiles"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DebugEnvVar enables tracing of the shim's decisions to stderr.
const DebugEnvVar = "RULES_PY_SHIM_DEBUG"

// Invocation contains the process state from which the shim determines
// which interpreter to execute.
type Invocation struct {
	Args    []string
	Environ []string
	// Directory against which relative paths are resolved.
	WorkingDirectory string
	// Path of the running executable as reported by the operating
	// system, possibly with symbolic links resolved.
	Executable string
}

// Execution is a fully resolved invocation of the real interpreter.
type Execution struct {
	// Canonical path of the real interpreter.
	Path string
	// Command line, having argv[0] set to the logical path of the
	// interpreter in the virtual environment.
	Args    []string
	Environ []string
}

// ExecFunc replaces the current process. It only returns on failure.
type ExecFunc func(argv0 string, argv, envv []string) error

// DefaultExecFunc is the ExecFunc used outside of tests.
var DefaultExecFunc ExecFunc = syscall.Exec

// Resolve determines how the real interpreter is executed on behalf of
// an invocation of the shim.
func Resolve(invocation *Invocation, logger logging.Logger) (*Execution, error) {
	if len(invocation.Args) == 0 {
		return nil, status.Error(codes.InvalidArgument, "Could not discover an execution command line")
	}
	pathList, _ := lookupEnv(invocation.Environ, PathEnvVar)
	var root, executable string
	if virtualEnv, _ := lookupEnv(invocation.Environ, VirtualEnvEnvVar); isVenvRoot(virtualEnv) {
		// An activated virtual environment makes self-location
		// unnecessary.
		root = virtualEnv
		executable = filepath.Join(root, "bin", "python3")
		logger.Debugf("Using virtual environment %s from $%s", root, VirtualEnvEnvVar)
	} else {
		var err error
		executable, err = LocateExecutable(invocation.Args[0], invocation.WorkingDirectory, invocation.Executable, pathList)
		if err != nil {
			return nil, err
		}
		logger.Debugf("Invoked as %s", executable)
		executable, err = ResolveRunfilesAncestors(executable)
		if err != nil {
			return nil, err
		}
		logger.Debugf("Located in %s", executable)
		root, err = FindVenvRoot(executable, "")
		if err != nil {
			return nil, err
		}
	}
	cfg, err := ReadPyCfg(root)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Virtual environment %s has version %s", root, cfg.VersionInfo)

	var interpreter string
	if cfg.Runfiles != nil {
		environment := runfiles.Environment{
			Executable:       executable,
			WorkingDirectory: invocation.WorkingDirectory,
		}
		environment.ManifestFile, _ = lookupEnv(invocation.Environ, runfiles.ManifestFileEnvVar)
		environment.Directory, _ = lookupEnv(invocation.Environ, runfiles.DirectoryEnvVar)
		environment.TestSourceDirectory, _ = lookupEnv(invocation.Environ, runfiles.TestSourceDirectoryEnvVar)
		interpreter, err = FindRunfilesInterpreter(environment, cfg.Runfiles, logger)
	} else {
		var version string
		version, err = cfg.ExternalVersion()
		if err == nil {
			interpreter, err = FindExternalInterpreter(version, filepath.Join(root, "bin"), pathList)
		}
	}
	if err != nil {
		return nil, err
	}
	interpreter, home, err := canonicalizeInterpreter(interpreter)
	if err != nil {
		return nil, err
	}

	args, err := pyargs.Reparse(invocation.Args)
	if err != nil {
		return nil, util.StatusWrapWithCode(err, codes.InvalidArgument, "Failed to parse interpreter arguments")
	}
	// Make the interpreter believe it is the one in the virtual
	// environment, as some platforms derive the interpreter's home
	// from argv[0].
	venvInterpreter := filepath.Join(root, "bin", "python3")
	args[0] = venvInterpreter

	execution := &Execution{
		Path:    interpreter,
		Args:    args,
		Environ: BuildEnvironment(invocation.Environ, root, venvInterpreter, home, cfg),
	}
	logger.Debugf("Executing %s with arguments %q", execution.Path, execution.Args)
	return execution, nil
}

// Run resolves the real interpreter and executes it. It only returns
// on failure.
func Run(invocation *Invocation, logger logging.Logger, execFunc ExecFunc) error {
	execution, err := Resolve(invocation, logger)
	if err != nil {
		return err
	}
	if err := execFunc(execution.Path, execution.Args, execution.Environ); err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to exec interpreter %#v", execution.Path)
	}
	return nil
}
