package runfiles

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
)

// ParseManifest parses the contents of a runfiles manifest. Every line
// of a manifest has the form "<relpath> <realpath>". Lines that do not
// contain a space are ignored.
func ParseManifest(r io.Reader) (map[string]string, error) {
	entries := map[string]string{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		relativePath, realPath, ok := strings.Cut(scanner.Text(), " ")
		if !ok {
			continue
		}
		entries[relativePath] = realPath
	}
	if err := scanner.Err(); err != nil {
		return nil, util.StatusWrapWithCode(err, codes.Internal, "Failed to read manifest")
	}
	return entries, nil
}

// readManifestFile parses a runfiles manifest stored on disk. A
// manifest that does not exist is reported as NOT_FOUND, so that it can
// be distinguished from other I/O errors.
func readManifestFile(manifestPath string) (map[string]string, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, util.StatusWrapfWithCode(err, codes.NotFound, "Runfiles manifest %#v does not exist", manifestPath)
		}
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to open runfiles manifest %#v", manifestPath)
	}
	defer f.Close()

	entries, err := ParseManifest(f)
	if err != nil {
		return nil, util.StatusWrapf(err, "Runfiles manifest %#v", manifestPath)
	}
	return entries, nil
}
