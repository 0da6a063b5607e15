package population

import (
	"os"
	"path/filepath"

	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
)

// isDirectory returns whether a path refers to a directory, following
// symbolic links.
func isDirectory(p string) bool {
	fileInfo, err := os.Stat(p)
	return err == nil && fileInfo.IsDir()
}

// walkFiles calls a function for every file contained in a directory
// hierarchy, providing both its path and the path relative to the
// root. Symbolic links to directories are traversed, as the inputs of
// sandboxed actions tend to be symlink forests.
func walkFiles(root string, fn func(filePath, relativePath string) error) error {
	return walkFilesRecursive(root, "", fn)
}

func walkFilesRecursive(directory, relativeDirectory string, fn func(filePath, relativePath string) error) error {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to read directory %#v", directory)
	}
	for _, entry := range entries {
		entryPath := filepath.Join(directory, entry.Name())
		relativePath := filepath.Join(relativeDirectory, entry.Name())
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			isDir = isDirectory(entryPath)
		}
		if isDir {
			if err := walkFilesRecursive(entryPath, relativePath, fn); err != nil {
				return err
			}
		} else if err := fn(entryPath, relativePath); err != nil {
			return err
		}
	}
	return nil
}
