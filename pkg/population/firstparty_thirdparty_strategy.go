package population

import (
	"github.com/aspect-build/rules-py/pkg/venv"
)

type firstpartyThirdpartyStrategy struct {
	firstparty Strategy
	thirdparty Strategy
}

// NewFirstpartyThirdpartyStrategy creates a Strategy that forwards
// entries belonging to the main repository to one strategy, and
// entries belonging to any other repository to another.
func NewFirstpartyThirdpartyStrategy(firstparty, thirdparty Strategy) Strategy {
	return &firstpartyThirdpartyStrategy{
		firstparty: firstparty,
		thirdparty: thirdparty,
	}
}

func (s *firstpartyThirdpartyStrategy) Plan(v *venv.Virtualenv, layout *ActionLayout, entry ManifestEntry) ([]Command, error) {
	if layout.IsMainRepo(entry.Repo) {
		return s.firstparty.Plan(v, layout, entry)
	}
	return s.thirdparty.Plan(v, layout, entry)
}
