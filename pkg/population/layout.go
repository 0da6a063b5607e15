package population

import (
	"path/filepath"
)

// ActionLayout describes the directory structure of the build action
// in which a virtual environment is populated. Inputs of the action
// belonging to the main repository are located at the root of the
// action directory, while inputs from other repositories are placed
// under external/. Generated files are placed in the same structure
// underneath the bin directory.
type ActionLayout struct {
	// Absolute path of the action's working directory.
	ActionDirectory string
	// Path of the output directory relative to the action directory,
	// such as "bazel-out/k8-fastbuild/bin".
	BinDirectory string
	// Name of the main repository. Defaults to the base name of the
	// action directory.
	MainRepo string
}

// NewActionLayout creates an ActionLayout for an action running in a
// given working directory.
func NewActionLayout(actionDirectory, binDirectory string) *ActionLayout {
	return &ActionLayout{
		ActionDirectory: actionDirectory,
		BinDirectory:    binDirectory,
		MainRepo:        filepath.Base(actionDirectory),
	}
}

// IsMainRepo returns whether a manifest entry belongs to the
// repository that is being built.
func (l *ActionLayout) IsMainRepo(repo string) bool {
	return repo == l.MainRepo
}

// AbsoluteBinDirectory returns the absolute path of the output
// directory.
func (l *ActionLayout) AbsoluteBinDirectory() string {
	return filepath.Join(l.ActionDirectory, l.BinDirectory)
}

// SourceCandidates returns the locations at which the files of a
// manifest entry may be found. Bazel partitions inputs between source
// files and generated files, meaning both locations need to be
// consulted.
func (l *ActionLayout) SourceCandidates(entry ManifestEntry) []string {
	prefixes := []string{l.ActionDirectory, l.AbsoluteBinDirectory()}
	candidates := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		if !l.IsMainRepo(entry.Repo) {
			prefix = filepath.Join(prefix, "external", entry.Repo)
		}
		candidates = append(candidates, filepath.Join(prefix, entry.Path))
	}
	return candidates
}
