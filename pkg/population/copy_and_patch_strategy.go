package population

import (
	"os"
	"path/filepath"

	"github.com/aspect-build/rules-py/pkg/venv"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type copyAndPatchStrategy struct{}

// CopyAndPatchStrategy copies the scripts contained in a bin directory
// into the bin directory of the virtual environment, patching their
// shebangs so that they remain usable after relocation. The bin
// directory must be flat.
var CopyAndPatchStrategy Strategy = copyAndPatchStrategy{}

func (copyAndPatchStrategy) Plan(v *venv.Virtualenv, layout *ActionLayout, entry ManifestEntry) ([]Command, error) {
	var plan []Command
	for _, sourceDirectory := range layout.SourceCandidates(entry) {
		if !isDirectory(sourceDirectory) {
			continue
		}
		entries, err := os.ReadDir(sourceDirectory)
		if err != nil {
			return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to read directory %#v", sourceDirectory)
		}
		for _, directoryEntry := range entries {
			filePath := filepath.Join(sourceDirectory, directoryEntry.Name())
			if directoryEntry.IsDir() || (directoryEntry.Type()&os.ModeSymlink != 0 && isDirectory(filePath)) {
				return nil, status.Errorf(codes.InvalidArgument, "Bin directory %#v contains subdirectory %#v, which is not supported", sourceDirectory, directoryEntry.Name())
			}
			plan = append(plan, CopyAndPatch{
				Source:      filePath,
				Destination: filepath.Join(v.BinDirectory, directoryEntry.Name()),
			})
		}
	}
	return plan, nil
}
