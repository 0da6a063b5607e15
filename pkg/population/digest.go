package population

import (
	"bytes"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// hashFile computes the BLAKE3 digest of a file's contents, following
// symbolic links.
func hashFile(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}

// haveIdenticalContents returns whether all of the provided files have
// the same contents. Files that cannot be read are never considered
// identical.
func haveIdenticalContents(paths []string) bool {
	var firstDigest []byte
	for i, p := range paths {
		digest, err := hashFile(p)
		if err != nil {
			return false
		}
		if i == 0 {
			firstDigest = digest
		} else if !bytes.Equal(firstDigest, digest) {
			return false
		}
	}
	return true
}
