package population

import (
	"path/filepath"

	"github.com/aspect-build/rules-py/pkg/venv"
)

type symlinkStrategy struct{}

// SymlinkStrategy creates a forest of symbolic links in the
// site-packages directory, pointing to every file underneath an import
// root.
var SymlinkStrategy Strategy = symlinkStrategy{}

func (symlinkStrategy) Plan(v *venv.Virtualenv, layout *ActionLayout, entry ManifestEntry) ([]Command, error) {
	var plan []Command
	for _, sourceDirectory := range layout.SourceCandidates(entry) {
		if !isDirectory(sourceDirectory) {
			continue
		}
		if err := walkFiles(sourceDirectory, func(filePath, relativePath string) error {
			plan = append(plan, Symlink{
				Source:      filePath,
				Destination: filepath.Join(v.SiteDirectory, relativePath),
			})
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return plan, nil
}
