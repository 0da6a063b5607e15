package population

// Command is a primitive filesystem action that is part of the plan for
// populating a virtual environment. It is one of Copy, CopyAndPatch,
// Symlink or PthEntry.
type Command interface {
	isCommand()
}

// Copy a file. Parent directories of the destination are created
// implicitly.
type Copy struct {
	Source      string
	Destination string
}

// CopyAndPatch copies a script into the bin directory of a virtual
// environment, replacing any placeholder shebang by one that invokes
// the interpreter in the same directory.
type CopyAndPatch struct {
	Source      string
	Destination string
}

// Symlink creates a symbolic link at the destination. The link's target
// is made relative to the destination's parent directory.
type Symlink struct {
	Source      string
	Destination string
}

// PthEntry adds an import path to the generated .pth file.
type PthEntry struct {
	// Path relative to the site-packages directory.
	Path string
	// Path relative to the root of the runfiles tree, written to the
	// .bzlpth file.
	RunfilesPath string
	// Manifest line that caused this entry to be emitted.
	ManifestLine string
}

func (Copy) isCommand()         {}
func (CopyAndPatch) isCommand() {}
func (Symlink) isCommand()      {}
func (PthEntry) isCommand()     {}

// commandSource returns the file a command reads from, if any.
func commandSource(command Command) (string, bool) {
	switch c := command.(type) {
	case Copy:
		return c.Source, true
	case CopyAndPatch:
		return c.Source, true
	case Symlink:
		return c.Source, true
	default:
		return "", false
	}
}

// commandDestination returns the key under which commands are grouped
// when detecting collisions.
func commandDestination(command Command) string {
	switch c := command.(type) {
	case Copy:
		return c.Destination
	case CopyAndPatch:
		return c.Destination
	case Symlink:
		return c.Destination
	case PthEntry:
		return c.Path
	default:
		panic("unknown command type")
	}
}

func commandKind(command Command) string {
	switch command.(type) {
	case Copy:
		return "copy"
	case CopyAndPatch:
		return "copy_and_patch"
	case Symlink:
		return "symlink"
	case PthEntry:
		return "pth_entry"
	default:
		panic("unknown command type")
	}
}
