package population

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
)

// Shebangs of scripts whose interpreter needs to be replaced. They are
// matched against the start of the file, meaning that variants such as
// "#!/usr/bin/env python3" are covered as well.
var placeholderShebangs = [][]byte{
	// Placeholder used by rules_python's wheel installer.
	[]byte("#!/dev/null"),
	[]byte("#!/usr/bin/env python"),
	// Hardcoded interpreters.
	[]byte("#!python"),
	[]byte("#!/bin/python"),
	[]byte("#!/usr/bin/python"),
	[]byte("#!/usr/local/bin/python"),
}

// shebangPeekSize is the number of bytes at the start of a script that
// are inspected for a placeholder shebang.
const shebangPeekSize = 64

// RelocatableShebang is a polyglot that is valid as both a shell script
// and Python. When executed by the shell, it executes the "python3"
// binary in the directory containing the script, after resolving
// symbolic links.
const RelocatableShebang = `#!/bin/sh
'''exec' "$(dirname -- "$(realpath -- "$0")")"/'python3' "$0" "$@"
' '''
`

func hasPlaceholderShebang(header []byte) bool {
	for _, shebang := range placeholderShebangs {
		if bytes.HasPrefix(header, shebang) {
			return true
		}
	}
	return false
}

// CopyAndPatchShebang copies a file. If it starts with a placeholder
// shebang, the first line is replaced with RelocatableShebang and the
// copy is made executable. Otherwise the copy gets the permissions of
// the original.
func CopyAndPatchShebang(source, destination string) error {
	r, err := os.Open(source)
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to open %#v", source)
	}
	defer r.Close()
	fileInfo, err := r.Stat()
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to stat %#v", source)
	}

	br := bufio.NewReader(r)
	header, err := br.Peek(shebangPeekSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to read %#v", source)
	}
	foundShebang := hasPlaceholderShebang(header)

	w, err := os.OpenFile(destination, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to create %#v", destination)
	}
	if err := writePatched(w, br, foundShebang); err != nil {
		w.Close()
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to write %#v", destination)
	}
	if err := w.Close(); err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to close %#v", destination)
	}

	mode := fileInfo.Mode().Perm()
	if foundShebang {
		mode = 0o755
	}
	if err := os.Chmod(destination, mode); err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to set permissions of %#v", destination)
	}
	return nil
}

func writePatched(w io.Writer, br *bufio.Reader, foundShebang bool) error {
	if foundShebang {
		// Discard the original shebang line.
		if _, err := br.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if _, err := io.WriteString(w, RelocatableShebang); err != nil {
			return err
		}
	}
	_, err := io.Copy(w, br)
	return err
}
