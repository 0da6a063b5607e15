package runfiles

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
)

// Runfiles provides lookups of runfiles by their logical path. The tree
// is either backed by a directory on disk, or by a manifest that
// provides a mapping from logical paths to real paths.
type Runfiles struct {
	directory   string
	manifest    map[string]string
	repoMapping RepoMapping
}

// NewDirectoryBased creates a Runfiles that resolves logical paths by
// prefixing them with the path of a runfiles directory.
func NewDirectoryBased(directory string, repoMapping RepoMapping) *Runfiles {
	if repoMapping == nil {
		repoMapping = RepoMapping{}
	}
	return &Runfiles{
		directory:   directory,
		repoMapping: repoMapping,
	}
}

// NewManifestBased creates a Runfiles that resolves logical paths by
// looking them up in a manifest.
func NewManifestBased(manifest map[string]string, repoMapping RepoMapping) *Runfiles {
	if repoMapping == nil {
		repoMapping = RepoMapping{}
	}
	return &Runfiles{
		manifest:    manifest,
		repoMapping: repoMapping,
	}
}

// New discovers the runfiles of the executable described by the
// provided Environment.
//
// If $RUNFILES_MANIFEST_FILE is set, the manifest is used. Otherwise
// the runfiles directory is located using FindDirectory and opened
// using NewFromDirectory.
func New(environment Environment) (*Runfiles, error) {
	if environment.ManifestFile != "" {
		manifest, err := readManifestFile(environment.ManifestFile)
		if err != nil {
			return nil, err
		}
		r := NewManifestBased(manifest, nil)
		if err := r.loadRepoMapping(); err != nil {
			return nil, err
		}
		return r, nil
	}
	directory, err := FindDirectory(environment)
	if err != nil {
		return nil, err
	}
	return NewFromDirectory(directory)
}

// NewFromDirectory opens the runfiles stored in a given directory. A
// directory that contains a file named MANIFEST is treated as manifest
// based. When present, the "_repo_mapping" runfile is loaded as well.
func NewFromDirectory(directory string) (*Runfiles, error) {
	var r *Runfiles
	manifestPath := joinRaw(directory, "MANIFEST")
	if _, err := os.Stat(manifestPath); err == nil {
		manifest, err := readManifestFile(manifestPath)
		if err != nil {
			return nil, err
		}
		r = NewManifestBased(manifest, nil)
	} else if errors.Is(err, fs.ErrNotExist) {
		r = NewDirectoryBased(directory, nil)
	} else {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to stat runfiles manifest %#v", manifestPath)
	}
	if err := r.loadRepoMapping(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runfiles) loadRepoMapping() error {
	repoMappingPath, ok := r.rawRlocation(repoMappingRunfile)
	if !ok {
		return nil
	}
	if _, err := os.Stat(repoMappingPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to stat repo mapping %#v", repoMappingPath)
	}
	repoMapping, err := readRepoMappingFile(repoMappingPath)
	if err != nil {
		return err
	}
	r.repoMapping = repoMapping
	return nil
}

// Rlocation returns the real path of a runfile, as seen from the main
// repository.
func (r *Runfiles) Rlocation(logicalPath string) (string, bool) {
	return r.RlocationFrom(logicalPath, "")
}

// RlocationFrom returns the real path of a runfile, as seen from the
// repository whose canonical name is sourceRepo. The first component
// of the path is translated through the repo mapping. If no mapping
// exists, the path is looked up as is.
//
// Absolute paths are returned unchanged. In manifest mode, false is
// returned if the path is not listed in the manifest. In directory
// mode the returned path is not checked for existence.
func (r *Runfiles) RlocationFrom(logicalPath, sourceRepo string) (string, bool) {
	if filepath.IsAbs(logicalPath) {
		return logicalPath, true
	}
	repoAlias, remainder, hasRemainder := strings.Cut(logicalPath, "/")
	if targetRepo, ok := r.repoMapping[RepoMappingKey{
		SourceRepo: sourceRepo,
		RepoAlias:  repoAlias,
	}]; ok {
		if hasRemainder {
			return r.rawRlocation(targetRepo + "/" + remainder)
		}
		return r.rawRlocation(targetRepo)
	}
	return r.rawRlocation(logicalPath)
}

func (r *Runfiles) rawRlocation(logicalPath string) (string, bool) {
	if filepath.IsAbs(logicalPath) {
		return logicalPath, true
	}
	if r.manifest != nil {
		realPath, ok := r.manifest[logicalPath]
		return realPath, ok
	}
	return joinRaw(r.directory, logicalPath), true
}

// joinRaw concatenates two paths without cleaning the result. Lexical
// cleanup of ".." would alter the meaning of paths that traverse
// symbolic links.
func joinRaw(base, name string) string {
	if base == "" {
		return name
	}
	return strings.TrimSuffix(base, "/") + "/" + name
}
