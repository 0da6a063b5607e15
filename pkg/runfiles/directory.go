package runfiles

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FindDirectory locates the runfiles directory of an executable.
//
// $RUNFILES_DIR and $TEST_SRCDIR take precedence, if they refer to
// existing directories. Otherwise the executable path is inspected.
// If "<executable>.runfiles" is a directory, or if one of the
// executable's ancestors carries a ".runfiles" suffix, that directory
// is returned. If neither is the case and the executable is a symbolic
// link, the search is repeated against the link's target. This permits
// locating the runfiles of a binary that is invoked through a symbolic
// link pointing into bazel-bin.
func FindDirectory(environment Environment) (string, error) {
	for _, candidate := range []string{environment.Directory, environment.TestSourceDirectory} {
		if candidate != "" && isDirectory(candidate) {
			return candidate, nil
		}
	}

	if environment.Executable == "" {
		return "", status.Error(codes.NotFound, "Cannot locate runfiles directory without an executable path")
	}
	executable := environment.Executable
	seen := map[string]struct{}{}
	for {
		if candidate := executable + ".runfiles"; isDirectory(candidate) {
			return candidate, nil
		}
		for ancestor := filepath.Dir(executable); ; ancestor = filepath.Dir(ancestor) {
			if strings.HasSuffix(filepath.Base(ancestor), ".runfiles") {
				return ancestor, nil
			}
			if parent := filepath.Dir(ancestor); parent == ancestor {
				break
			}
		}

		if _, ok := seen[executable]; ok {
			break
		}
		seen[executable] = struct{}{}

		fileInfo, err := os.Lstat(executable)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				break
			}
			return "", util.StatusWrapfWithCode(err, codes.Internal, "Failed to stat %#v", executable)
		}
		if fileInfo.Mode()&fs.ModeSymlink == 0 {
			break
		}
		target, err := os.Readlink(executable)
		if err != nil {
			return "", util.StatusWrapfWithCode(err, codes.Internal, "Failed to read symbolic link %#v", executable)
		}
		switch {
		case filepath.IsAbs(target):
			executable = target
		case filepath.IsAbs(executable) || environment.WorkingDirectory == "":
			executable = joinRaw(filepath.Dir(executable), target)
		default:
			executable = joinRaw(joinRaw(environment.WorkingDirectory, filepath.Dir(executable)), target)
		}
	}
	return "", status.Errorf(codes.NotFound, "Failed to find runfiles directory for executable %#v", environment.Executable)
}

func isDirectory(p string) bool {
	fileInfo, err := os.Stat(p)
	return err == nil && fileInfo.IsDir()
}
