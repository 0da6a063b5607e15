package shim

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Environment variables that are set for the interpreter.
const (
	VirtualEnvEnvVar       = "VIRTUAL_ENV"
	PathEnvVar             = "PATH"
	PythonExecutableEnvVar = "PYTHONEXECUTABLE"
	PythonHomeEnvVar       = "PYTHONHOME"
	PythonNoUserSiteEnvVar = "PYTHONNOUSERSITE"
	ValidityEnvVar         = "ASPECT_PY_VALIDITY"
)

// lookupEnv returns the value of a variable in an environment list of
// "key=value" pairs. Later entries take precedence.
func lookupEnv(environ []string, key string) (string, bool) {
	for i := len(environ) - 1; i >= 0; i-- {
		if k, v, ok := strings.Cut(environ[i], "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

// setEnv replaces all values of a variable in an environment list.
func setEnv(environ []string, key, value string) []string {
	prefix := key + "="
	updated := environ[:0:0]
	for _, entry := range environ {
		if !strings.HasPrefix(entry, prefix) {
			updated = append(updated, entry)
		}
	}
	return append(updated, prefix+value)
}

// PrependPath places a directory at the front of a $PATH value. It is
// removed from any other position, and empty entries are dropped.
func PrependPath(pathList, directory string) string {
	entries := []string{directory}
	for _, entry := range filepath.SplitList(pathList) {
		if entry != "" && entry != directory {
			entries = append(entries, entry)
		}
	}
	return strings.Join(entries, string(filepath.ListSeparator))
}

// ValidityToken is a deterministic identifier of the pairing between
// the logical interpreter path and the interpreter home it was
// resolved to.
func ValidityToken(venvInterpreter, home string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(venvInterpreter+"\x00"+home)).String()
}

// BuildEnvironment derives the environment of the interpreter from
// that of the shim, making it behave as if the virtual environment was
// activated.
func BuildEnvironment(environ []string, root, venvInterpreter, home string, cfg *PyCfg) []string {
	pathList, _ := lookupEnv(environ, PathEnvVar)
	updated := setEnv(environ, PathEnvVar, PrependPath(pathList, filepath.Join(root, "bin")))
	updated = setEnv(updated, VirtualEnvEnvVar, root)
	updated = setEnv(updated, PythonExecutableEnvVar, venvInterpreter)
	updated = setEnv(updated, PythonHomeEnvVar, home)
	if !cfg.IncludeUserSitePackages {
		updated = setEnv(updated, PythonNoUserSiteEnvVar, "1")
	}
	return setEnv(updated, ValidityEnvVar, ValidityToken(venvInterpreter, home))
}
