package shim

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aspect-build/rules-py/pkg/logging"
	"github.com/aspect-build/rules-py/pkg/runfiles"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FindExternalInterpreter returns the first file named
// "python${MAJOR}.${MINOR}" in $PATH. The virtual environment's own bin
// directory is skipped, as it contains the shim itself.
func FindExternalInterpreter(version, excludeDirectory, pathList string) (string, error) {
	name := "python" + version
	for _, directory := range filepath.SplitList(pathList) {
		if directory == "" || filepath.Clean(directory) == filepath.Clean(excludeDirectory) {
			continue
		}
		candidate := filepath.Join(directory, name)
		if isRegularFile(candidate) {
			return candidate, nil
		}
	}
	return "", status.Errorf(codes.NotFound, "No suitable Python interpreter found in PATH matching version %#v", version)
}

// splitActionLayout splits the path of an executable that is part of a
// build action into the root of the action and the output directory
// relative to it, such as "bazel-out/k8-fastbuild/bin". If the path is
// not located in an output directory, the current directory is used
// as the root and no output directory is returned.
func splitActionLayout(executable string) (string, string) {
	before, after, ok := strings.Cut(executable, "bazel-out")
	if !ok {
		return ".", ""
	}
	if before == "" {
		before = "."
	}
	components := strings.Split(strings.TrimPrefix(after, "/"), "/")
	if len(components) < 2 || components[0] == "" || components[1] != "bin" {
		return before, ""
	}
	return before, filepath.Join("bazel-out", components[0], "bin")
}

// FindActionLayoutInterpreter locates an interpreter when no runfiles
// are available, such as when the interpreter is invoked as a tool
// during a build action. Candidates are probed in the locations where
// Bazel places source and generated files of the main and external
// repositories.
func FindActionLayoutInterpreter(executable, runfilesPath string) (string, error) {
	actionRoot, binDirectory := splitActionLayout(executable)
	candidates := []string{filepath.Join(actionRoot, "external", runfilesPath)}
	if binDirectory != "" {
		candidates = append(candidates, filepath.Join(actionRoot, binDirectory, "external", runfilesPath))
	}
	candidates = append(candidates, filepath.Join(actionRoot, runfilesPath))
	if binDirectory != "" {
		candidates = append(candidates, filepath.Join(actionRoot, binDirectory, runfilesPath))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", status.Errorf(codes.NotFound, "Unable to initialize runfiles and unable to identify action layout interpreter, searched %s", strings.Join(candidates, ", "))
}

// FindRunfilesInterpreter resolves an interpreter that is part of the
// runfiles tree of the executable. If no runfiles can be discovered,
// the interpreter is searched for in the layout of a build action.
func FindRunfilesInterpreter(environment runfiles.Environment, interpreter *RunfilesInterpreter, logger logging.Logger) (string, error) {
	var r *runfiles.Runfiles
	if environment.ManifestFile != "" {
		var err error
		if r, err = runfiles.New(environment); err != nil {
			return "", err
		}
	} else {
		// Only the absence of a runfiles directory permits falling
		// back. Corrupt runfiles are reported.
		directory, err := runfiles.FindDirectory(environment)
		if status.Code(err) == codes.NotFound {
			logger.Debugf("Falling back to the action layout, as runfiles are unavailable: %s", err)
			return FindActionLayoutInterpreter(environment.Executable, interpreter.Path)
		} else if err != nil {
			return "", err
		}
		if r, err = runfiles.NewFromDirectory(directory); err != nil {
			return "", err
		}
	}
	p, ok := r.RlocationFrom(interpreter.Path, interpreter.Repo)
	if !ok {
		return "", status.Errorf(codes.NotFound, "Unable to identify an interpreter for runfiles path %#v in repository %#v", interpreter.Path, interpreter.Repo)
	}
	return p, nil
}

// canonicalizeInterpreter resolves all symbolic links in the path of
// the interpreter, and returns it together with the root of its
// installation.
func canonicalizeInterpreter(interpreter string) (string, string, error) {
	canonicalInterpreter, err := filepath.EvalSymlinks(interpreter)
	if err != nil {
		return "", "", util.StatusWrapfWithCode(err, codes.NotFound, "Failed to canonicalize interpreter %#v", interpreter)
	}
	canonicalInterpreter, err = filepath.Abs(canonicalInterpreter)
	if err != nil {
		return "", "", util.StatusWrapfWithCode(err, codes.Internal, "Failed to make interpreter %#v absolute", canonicalInterpreter)
	}
	home, err := filepath.EvalSymlinks(filepath.Dir(filepath.Dir(canonicalInterpreter)))
	if err != nil {
		return "", "", util.StatusWrapfWithCode(err, codes.Internal, "Failed to canonicalize the home of interpreter %#v", canonicalInterpreter)
	}
	return canonicalInterpreter, home, nil
}
