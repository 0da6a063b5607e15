package population

import (
	"github.com/aspect-build/rules-py/pkg/venv"
)

// Strategy for populating a virtual environment. A Strategy converts a
// single import root listed in the manifest to a list of commands.
type Strategy interface {
	Plan(v *venv.Virtualenv, layout *ActionLayout, entry ManifestEntry) ([]Command, error)
}
