package venv

import (
	"path/filepath"
)

// Virtualenv describes the layout of a virtual environment on disk.
// All paths are absolute.
type Virtualenv struct {
	// Root of the virtual environment, containing pyvenv.cfg.
	HomeDirectory string
	// Directory containing the interpreter and installed scripts.
	BinDirectory string
	// The lib/pythonX.Y/site-packages directory.
	SiteDirectory string
	// Logical path of the interpreter, bin/python.
	PythonBinary string
	VersionInfo  PythonVersionInfo
}

// NewVirtualenv computes the layout of a virtual environment rooted at
// an absolute path.
func NewVirtualenv(homeDirectory string, versionInfo PythonVersionInfo) *Virtualenv {
	binDirectory := filepath.Join(homeDirectory, "bin")
	return &Virtualenv{
		HomeDirectory: homeDirectory,
		BinDirectory:  binDirectory,
		SiteDirectory: filepath.Join(homeDirectory, "lib", "python"+versionInfo.MajorMinor(), "site-packages"),
		PythonBinary:  filepath.Join(binDirectory, "python"),
		VersionInfo:   versionInfo,
	}
}
