package population

import (
	"path"

	"github.com/aspect-build/rules-py/pkg/venv"
)

type strategyWithBindir struct {
	rootStrategy Strategy
	binStrategy  Strategy
}

// NewStrategyWithBindir creates a Strategy that applies rootStrategy
// to every entry. If a "bin" directory exists next to the entry, as is
// the case for packages installed from wheels, binStrategy is applied
// to that directory as well.
func NewStrategyWithBindir(rootStrategy, binStrategy Strategy) Strategy {
	return &strategyWithBindir{
		rootStrategy: rootStrategy,
		binStrategy:  binStrategy,
	}
}

func (s *strategyWithBindir) Plan(v *venv.Virtualenv, layout *ActionLayout, entry ManifestEntry) ([]Command, error) {
	plan, err := s.rootStrategy.Plan(v, layout, entry)
	if err != nil {
		return nil, err
	}

	binEntry := ManifestEntry{
		Repo: entry.Repo,
		Path: path.Join(path.Dir(entry.Path), "bin"),
		Line: entry.Line,
	}
	for _, candidate := range layout.SourceCandidates(binEntry) {
		if isDirectory(candidate) {
			binPlan, err := s.binStrategy.Plan(v, layout, binEntry)
			if err != nil {
				return nil, err
			}
			return append(plan, binPlan...), nil
		}
	}
	return plan, nil
}
