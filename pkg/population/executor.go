package population

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aspect-build/rules-py/pkg/venv"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
)

// Names of the files in the site-packages directory to which PthEntry
// commands are written.
const (
	PthFileName    = "_aspect.pth"
	BzlpthFileName = "_aspect.bzlpth"
)

const pthHeader = `# Generated by Aspect py_binary
# Contains relative import paths to non site-package trees within the .runfiles
`

const bzlpthHeader = `# Generated by Aspect py_binary
# Contains import paths relative to the root of the .runfiles tree
`

func copyFile(source, destination string) error {
	r, err := os.Open(source)
	if err != nil {
		return err
	}
	defer r.Close()
	fileInfo, err := r.Stat()
	if err != nil {
		return err
	}

	w, err := os.OpenFile(destination, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// createRelativeSymlink creates a symbolic link whose target is
// expressed relative to the directory containing the link. This keeps
// the link valid if the tree containing both the link and its target
// is relocated.
func createRelativeSymlink(target, link string) error {
	relativeTarget, err := filepath.Rel(filepath.Dir(link), target)
	if err != nil {
		return err
	}
	return os.Symlink(relativeTarget, link)
}

// pthWriter writes PthEntry commands to the .pth and .bzlpth files.
type pthWriter struct {
	pthFile    *os.File
	pth        *bufio.Writer
	bzlpthFile *os.File
	bzlpth     *bufio.Writer
}

func newPthWriter(siteDirectory string) (*pthWriter, error) {
	pthPath := filepath.Join(siteDirectory, PthFileName)
	pthFile, err := os.Create(pthPath)
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to create %#v", pthPath)
	}
	bzlpthPath := filepath.Join(siteDirectory, BzlpthFileName)
	bzlpthFile, err := os.Create(bzlpthPath)
	if err != nil {
		pthFile.Close()
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to create %#v", bzlpthPath)
	}
	pw := &pthWriter{
		pthFile:    pthFile,
		pth:        bufio.NewWriter(pthFile),
		bzlpthFile: bzlpthFile,
		bzlpth:     bufio.NewWriter(bzlpthFile),
	}
	pw.pth.WriteString(pthHeader)
	pw.bzlpth.WriteString(bzlpthHeader)
	return pw, nil
}

func (pw *pthWriter) writeEntry(entry PthEntry) {
	fmt.Fprintln(pw.pth, entry.Path)
	fmt.Fprintf(pw.bzlpth, "# @%s\n%s\n", entry.ManifestLine, entry.RunfilesPath)
}

// close flushes both files. Write errors are sticky in bufio.Writer,
// so they are reported here.
func (pw *pthWriter) close() error {
	err1 := pw.pth.Flush()
	if err := pw.pthFile.Close(); err1 == nil {
		err1 = err
	}
	err2 := pw.bzlpth.Flush()
	if err := pw.bzlpthFile.Close(); err2 == nil {
		err2 = err
	}
	if err1 != nil {
		return util.StatusWrapfWithCode(err1, codes.Internal, "Failed to write %#v", pw.pthFile.Name())
	}
	if err2 != nil {
		return util.StatusWrapfWithCode(err2, codes.Internal, "Failed to write %#v", pw.bzlpthFile.Name())
	}
	return nil
}

func createParentDirectory(p string) error {
	parent := filepath.Dir(p)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to create directory %#v", parent)
	}
	return nil
}

// ExecutePlan runs the commands of a plan that has been deduplicated
// by ResolveCollisions. Execution is not transactional. Upon failure,
// the virtual environment is left partially populated.
func ExecutePlan(v *venv.Virtualenv, plan []Command) error {
	registerMetrics()

	pw, err := newPthWriter(v.SiteDirectory)
	if err != nil {
		return err
	}
	if err := executeCommands(pw, plan); err != nil {
		pw.close()
		return err
	}
	return pw.close()
}

func executeCommands(pw *pthWriter, plan []Command) error {
	for _, command := range plan {
		switch c := command.(type) {
		case Copy:
			if err := createParentDirectory(c.Destination); err != nil {
				return err
			}
			if err := copyFile(c.Source, c.Destination); err != nil {
				return util.StatusWrapfWithCode(err, codes.Internal, "Failed to copy %#v to %#v", c.Source, c.Destination)
			}
		case CopyAndPatch:
			if err := createParentDirectory(c.Destination); err != nil {
				return err
			}
			if err := CopyAndPatchShebang(c.Source, c.Destination); err != nil {
				return err
			}
		case Symlink:
			if err := createParentDirectory(c.Destination); err != nil {
				return err
			}
			if err := createRelativeSymlink(c.Source, c.Destination); err != nil {
				return util.StatusWrapfWithCode(err, codes.Internal, "Failed to create symbolic link %#v pointing to %#v", c.Destination, c.Source)
			}
		case PthEntry:
			pw.writeEntry(c)
		}
		populationCommandsExecutedTotal.WithLabelValues(commandKind(command)).Inc()
	}
	return nil
}
