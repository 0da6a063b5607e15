package population

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/buildbarn/bb-storage/pkg/filesystem/path"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ManifestEntry is an import root that needs to be made available
// inside the virtual environment, as listed in a .pth style manifest.
type ManifestEntry struct {
	// Name of the repository containing the import root.
	Repo string
	// Path of the import root within the repository. Empty for the
	// root of the repository.
	Path string
	// Line of the manifest from which the entry was parsed.
	Line string
}

// RunfilesPath returns the path of the import root relative to the root
// of the runfiles tree.
func (e ManifestEntry) RunfilesPath() string {
	if e.Path == "" {
		return e.Repo
	}
	return e.Repo + "/" + e.Path
}

// ParseManifestEntry parses a single manifest line of the form
// "<repo>/<path>". A line without a slash refers to the root of a
// repository.
func ParseManifestEntry(line string) (ManifestEntry, error) {
	line = strings.TrimSpace(line)
	repo, entryPath, _ := strings.Cut(line, "/")
	if repo == "" || repo == "." || repo == ".." {
		return ManifestEntry{}, status.Errorf(codes.InvalidArgument, "Manifest entry %#v does not start with a repository name", line)
	}
	if entryPath != "" {
		// Normalize the path, so that strategies may match on
		// its components.
		entryPathBuilder, scopeWalker := path.EmptyBuilder.Join(path.VoidScopeWalker)
		if err := path.Resolve(path.UNIXFormat.NewParser(entryPath), scopeWalker); err != nil {
			return ManifestEntry{}, util.StatusWrapfWithCode(err, codes.InvalidArgument, "Invalid path in manifest entry %#v", line)
		}
		entryPath = strings.TrimSuffix(entryPathBuilder.GetUNIXString(), "/")
		if entryPath == "." {
			entryPath = ""
		}
		if entryPath == ".." || strings.HasPrefix(entryPath, "../") || strings.HasPrefix(entryPath, "/") {
			return ManifestEntry{}, status.Errorf(codes.InvalidArgument, "Manifest entry %#v escapes its repository", line)
		}
	}
	return ManifestEntry{
		Repo: repo,
		Path: entryPath,
		Line: line,
	}, nil
}

// ParseManifest parses a .pth style manifest containing one import
// root per line. Blank lines are ignored.
func ParseManifest(r io.Reader) ([]ManifestEntry, error) {
	var entries []ManifestEntry
	scanner := bufio.NewScanner(r)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := ParseManifestEntry(line)
		if err != nil {
			return nil, util.StatusWrapf(err, "Line %d", lineNumber)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, util.StatusWrapWithCode(err, codes.Internal, "Failed to read manifest")
	}
	return entries, nil
}

// ReadManifestFile parses a manifest stored on disk.
func ReadManifestFile(manifestPath string) ([]ManifestEntry, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to open manifest %#v", manifestPath)
	}
	defer f.Close()

	entries, err := ParseManifest(f)
	if err != nil {
		return nil, util.StatusWrapf(err, "Manifest %#v", manifestPath)
	}
	return entries, nil
}
