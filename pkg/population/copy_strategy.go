package population

import (
	"path/filepath"

	"github.com/aspect-build/rules-py/pkg/venv"
)

type copyStrategy struct{}

// CopyStrategy copies every file underneath an import root into the
// site-packages directory. It has poor I/O characteristics compared to
// using symbolic links or .pth entries.
var CopyStrategy Strategy = copyStrategy{}

func (copyStrategy) Plan(v *venv.Virtualenv, layout *ActionLayout, entry ManifestEntry) ([]Command, error) {
	var plan []Command
	for _, sourceDirectory := range layout.SourceCandidates(entry) {
		if !isDirectory(sourceDirectory) {
			continue
		}
		if err := walkFiles(sourceDirectory, func(filePath, relativePath string) error {
			plan = append(plan, Copy{
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
