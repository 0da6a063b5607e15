package population

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Mode in which a virtual environment is constructed.
type Mode int

const (
	// ModeDynamicSymlink processes a .pth file whose entries are
	// relative to site-packages, materializing the ones referring
	// to site-packages directories as symlink trees.
	ModeDynamicSymlink Mode = iota
	// ModeStaticCopy copies third party packages into site-packages.
	ModeStaticCopy
	// ModeStaticSymlink creates trees of symbolic links in
	// site-packages pointing to third party packages.
	ModeStaticSymlink
	// ModeStaticPth references all import roots from a .pth file.
	ModeStaticPth
)

var modeNames = []string{
	ModeDynamicSymlink: "dynamic-symlink",
	ModeStaticCopy:     "static-copy",
	ModeStaticSymlink:  "static-symlink",
	ModeStaticPth:      "static-pth",
}

// ParseMode converts the name of a mode as provided on the command
// line.
func ParseMode(s string) (Mode, error) {
	for mode, name := range modeNames {
		if s == name {
			return Mode(mode), nil
		}
	}
	return 0, status.Errorf(codes.InvalidArgument, "Mode only accepts \"dynamic-symlink\", \"static-copy\", \"static-symlink\" or \"static-pth\", not %#v", s)
}

func (m Mode) String() string {
	return modeNames[m]
}

// IsStatic returns whether the mode populates the virtual environment
// by planning commands, as opposed to processing a .pth file.
func (m Mode) IsStatic() bool {
	return m != ModeDynamicSymlink
}

// NewStrategyForMode returns the Strategy that is used to populate a
// virtual environment in one of the static modes. In all of these
// modes first party code is referenced from the .pth file, and scripts
// in bin directories of third party packages are installed with their
// shebangs patched.
func NewStrategyForMode(mode Mode) (Strategy, error) {
	var sitePackagesStrategy Strategy
	switch mode {
	case ModeStaticCopy:
		sitePackagesStrategy = CopyStrategy
	case ModeStaticSymlink:
		sitePackagesStrategy = SymlinkStrategy
	case ModeStaticPth:
		sitePackagesStrategy = PthStrategy
	default:
		return nil, status.Errorf(codes.InvalidArgument, "Mode %s does not use a population strategy", mode)
	}
	return NewFirstpartyThirdpartyStrategy(
		PthStrategy,
		NewStrategyWithBindir(
			NewSrcSiteStrategy(PthStrategy, DefaultSiteSuffixes, sitePackagesStrategy),
			CopyAndPatchStrategy,
		),
	), nil
}
