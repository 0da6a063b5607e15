package shim

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aspect-build/rules-py/pkg/venv"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LocateExecutable determines the path through which the shim was
// invoked, without resolving any symbolic links. Symbolic links are
// what connect the virtual environment in the runfiles tree to the
// executable, so resolving them would lose track of the virtual
// environment.
//
// Absolute values of argv[0] are used as is. Relative values are
// resolved against the working directory, but only if that yields the
// running executable. Otherwise argv[0] is looked up in $PATH.
func LocateExecutable(argv0, workingDirectory, executable, pathList string) (string, error) {
	if filepath.IsAbs(argv0) {
		return argv0, nil
	}

	candidate := filepath.Join(workingDirectory, argv0)
	if isSameExecutable(candidate, executable) {
		return candidate, nil
	}

	if !strings.ContainsRune(argv0, filepath.Separator) {
		for _, directory := range filepath.SplitList(pathList) {
			if directory == "" {
				continue
			}
			if !filepath.IsAbs(directory) {
				directory = filepath.Join(workingDirectory, directory)
			}
			candidate := filepath.Join(directory, argv0)
			if isExecutableFile(candidate) {
				return candidate, nil
			}
		}
	}
	return "", status.Errorf(codes.NotFound, "Unable to identify the path of executable %#v", argv0)
}

func isExecutableFile(p string) bool {
	fileInfo, err := os.Stat(p)
	return err == nil && fileInfo.Mode().IsRegular() && fileInfo.Mode().Perm()&0o111 != 0
}

// isSameExecutable returns whether a candidate path refers to the
// running executable. If the running executable is unknown, any
// existing file is accepted.
func isSameExecutable(candidate, executable string) bool {
	fileInfo, err := os.Stat(candidate)
	if err != nil || fileInfo.IsDir() {
		return false
	}
	if executable == "" {
		return true
	}
	executableInfo, err := os.Stat(executable)
	return err == nil && os.SameFile(fileInfo, executableInfo)
}

func hasRunfilesComponent(p string) bool {
	for _, component := range strings.Split(p, string(filepath.Separator)) {
		if strings.HasSuffix(component, ".runfiles") {
			return true
		}
	}
	return false
}

// resolveDeepestSymlinkAncestor replaces the deepest ancestor
// directory of a path that is a symbolic link by its target. The final
// component of the path is never resolved.
//
// Relative targets are interpreted against the physical parent of the
// link. The parent may itself be reached through symbolic links, in
// which case ".." in the target refers to the parent of the link's
// target directory, not the lexical parent.
func resolveDeepestSymlinkAncestor(p string) (string, bool, error) {
	for ancestor := filepath.Dir(p); ; ancestor = filepath.Dir(ancestor) {
		fileInfo, err := os.Lstat(ancestor)
		if err == nil && fileInfo.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(ancestor)
			if err != nil {
				return "", false, util.StatusWrapfWithCode(err, codes.Internal, "Failed to read symbolic link %#v", ancestor)
			}
			if !filepath.IsAbs(target) {
				parent, err := filepath.EvalSymlinks(filepath.Dir(ancestor))
				if err != nil {
					return "", false, util.StatusWrapfWithCode(err, codes.Internal, "Failed to resolve parent directory of symbolic link %#v", ancestor)
				}
				target = filepath.Join(parent, target)
			}
			suffix := strings.TrimPrefix(strings.TrimPrefix(p, ancestor), string(filepath.Separator))
			return filepath.Join(target, suffix), true, nil
		}
		if parent := filepath.Dir(ancestor); parent == ancestor {
			return p, false, nil
		}
	}
}

// ResolveRunfilesAncestors resolves symbolic links in the ancestor
// directories of an executable, one at a time and deepest first, until
// the path contains a component ending with ".runfiles" or none of its
// ancestors is a symbolic link. This translates the path of an
// interpreter in a virtual environment that is symlinked into the
// runfiles tree to the path inside the runfiles tree.
func ResolveRunfilesAncestors(p string) (string, error) {
	p = filepath.Clean(p)
	seen := map[string]struct{}{}
	for !hasRunfilesComponent(p) {
		if _, ok := seen[p]; ok {
			return "", status.Errorf(codes.FailedPrecondition, "Symbolic link cycle detected while resolving ancestors of %#v", p)
		}
		seen[p] = struct{}{}

		resolved, changed, err := resolveDeepestSymlinkAncestor(p)
		if err != nil {
			return "", err
		}
		if !changed {
			break
		}
		p = resolved
	}
	return p, nil
}

// FindVenvRoot returns the root directory of the virtual environment
// containing an interpreter, which is located two levels up and must
// contain pyvenv.cfg. A value of $VIRTUAL_ENV that points to a virtual
// environment takes precedence.
func FindVenvRoot(executable, virtualEnv string) (string, error) {
	if isVenvRoot(virtualEnv) {
		return virtualEnv, nil
	}
	root := filepath.Dir(filepath.Dir(executable))
	if isRegularFile(filepath.Join(root, venv.ConfigFileName)) {
		return root, nil
	}
	return "", status.Errorf(codes.NotFound, "Unable to identify a virtualenv home for %#v: %#v does not exist", executable, filepath.Join(root, venv.ConfigFileName))
}

func isVenvRoot(p string) bool {
	return p != "" && isRegularFile(filepath.Join(p, venv.ConfigFileName))
}

func isRegularFile(p string) bool {
	fileInfo, err := os.Stat(p)
	return err == nil && fileInfo.Mode().IsRegular()
}
