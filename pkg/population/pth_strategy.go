package population

import (
	"path/filepath"

	"github.com/aspect-build/rules-py/pkg/venv"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
)

type pthStrategy struct{}

// PthStrategy emits a single .pth entry per import root. It performs no
// I/O. At run time the entry is resolved relative to the site-packages
// directory, which is assumed to be located in the runfiles tree of
// the main repository.
//
// This is appropriate for first party code. If applied to third party
// code, it effectively emulates setting $PYTHONPATH.
var PthStrategy Strategy = pthStrategy{}

func (pthStrategy) Plan(v *venv.Virtualenv, layout *ActionLayout, entry ManifestEntry) ([]Command, error) {
	// The bin directory corresponds to the root of the main
	// repository's runfiles directory. One more level is needed to
	// reach the root of the runfiles tree.
	pathToMainRepo, err := filepath.Rel(v.SiteDirectory, layout.AbsoluteBinDirectory())
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.InvalidArgument, "Failed to compute path from %#v to the bin directory", v.SiteDirectory)
	}
	return []Command{
		PthEntry{
			Path:         filepath.Join(pathToMainRepo, "..", entry.RunfilesPath()),
			RunfilesPath: entry.RunfilesPath(),
			ManifestLine: entry.Line,
		},
	}, nil
}
