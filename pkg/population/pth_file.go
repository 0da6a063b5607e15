package population

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
)

// PthFile is a .pth file whose entries are relative to a virtual
// environment's site-packages directory. It is used to populate virtual
// environments whose dependencies are already laid out in
// site-packages directories.
type PthFile struct {
	Source string
	// Optional prefix that is prepended to every entry.
	Prefix string
}

// SetUpSitePackages processes the entries of the .pth file. Entries
// referring to site-packages or dist-packages directories are
// materialized as trees of symbolic links inside siteDirectory. Other
// entries are written to a .pth file in siteDirectory having the same
// name as the source.
func (p *PthFile) SetUpSitePackages(siteDirectory string) error {
	registerMetrics()

	r, err := os.Open(p.Source)
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to open .pth file %#v", p.Source)
	}
	defer r.Close()

	destinationPath := filepath.Join(siteDirectory, filepath.Base(p.Source))
	w, err := os.Create(destinationPath)
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to create .pth file %#v", destinationPath)
	}
	bw := bufio.NewWriter(w)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		entry := strings.TrimSpace(scanner.Text())
		if entry == "" {
			continue
		}
		if p.Prefix != "" {
			entry = filepath.Join(p.Prefix, entry)
		}
		if base := filepath.Base(entry); base == "site-packages" || base == "dist-packages" {
			if err := CreateTree(filepath.Join(siteDirectory, entry), siteDirectory); err != nil {
				w.Close()
				return err
			}
		} else {
			fmt.Fprintln(bw, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		w.Close()
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to read .pth file %#v", p.Source)
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to write .pth file %#v", destinationPath)
	}
	if err := w.Close(); err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to close .pth file %#v", destinationPath)
	}
	return nil
}

// CreateTree mirrors the directory hierarchy at sourceDirectory into
// destinationDirectory, creating relative symbolic links for every
// file. An __init__.py at the root of the source directory is skipped,
// as site-packages directories are not packages.
//
// Some distributions ship copies of the same __init__.py file for a
// package that should have been a namespace package. An __init__.py
// that already exists at the destination is therefore permitted, as
// long as its contents are identical.
func CreateTree(sourceDirectory, destinationDirectory string) error {
	return createTreeRecursive(sourceDirectory, destinationDirectory, true)
}

func createTreeRecursive(sourceDirectory, destinationDirectory string, isRoot bool) error {
	if err := os.MkdirAll(destinationDirectory, 0o755); err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to create directory %#v", destinationDirectory)
	}
	entries, err := os.ReadDir(sourceDirectory)
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to read directory %#v", sourceDirectory)
	}
	for _, entry := range entries {
		name := entry.Name()
		source := filepath.Join(sourceDirectory, name)
		destination := filepath.Join(destinationDirectory, name)
		if isDirectory(source) {
			if err := createTreeRecursive(source, destination, false); err != nil {
				return err
			}
			continue
		}
		if name == "__init__.py" {
			if isRoot {
				continue
			}
			if _, err := os.Lstat(destination); err == nil {
				if haveIdenticalContents([]string{destination, source}) {
					continue
				}
			} else if !errors.Is(err, fs.ErrNotExist) {
				return util.StatusWrapfWithCode(err, codes.Internal, "Failed to stat %#v", destination)
			}
		}
		if err := createRelativeSymlink(source, destination); err != nil {
			return util.StatusWrapfWithCode(err, codes.Internal, "Failed to create symbolic link %#v pointing to %#v", destination, source)
		}
		populationSymlinkTreeLinksTotal.Inc()
	}
	return nil
}
