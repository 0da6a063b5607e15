package runfiles

// Names of environment variables through which Bazel announces the
// location of the runfiles of the running program.
const (
	DirectoryEnvVar           = "RUNFILES_DIR"
	ManifestFileEnvVar        = "RUNFILES_MANIFEST_FILE"
	TestSourceDirectoryEnvVar = "TEST_SRCDIR"
)

// Environment contains all of the process state that is consulted to
// locate runfiles. It is captured explicitly, so that runfiles can be
// discovered on behalf of a path other than the running executable,
// and so that tests don't need to mutate the process environment.
type Environment struct {
	// Value of $RUNFILES_MANIFEST_FILE.
	ManifestFile string
	// Value of $RUNFILES_DIR.
	Directory string
	// Value of $TEST_SRCDIR.
	TestSourceDirectory string
	// Path of the executable whose runfiles need to be located. This
	// path should not have any symbolic links resolved.
	Executable string
	// Directory against which relative symbolic link targets
	// encountered while searching for runfiles are resolved.
	WorkingDirectory string
}
