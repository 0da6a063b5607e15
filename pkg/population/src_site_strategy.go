package population

import (
	"strings"

	"github.com/aspect-build/rules-py/pkg/venv"
)

// DefaultSiteSuffixes are the trailing path components that identify
// installed third party packages.
var DefaultSiteSuffixes = []string{"site-packages", "dist-packages"}

type srcSiteStrategy struct {
	srcStrategy  Strategy
	siteSuffixes []string
	siteStrategy Strategy
}

// NewSrcSiteStrategy creates a Strategy that forwards entries whose
// path ends with one of the provided suffixes to siteStrategy, and all
// other entries to srcStrategy. Suffixes are matched against whole
// path components.
func NewSrcSiteStrategy(srcStrategy Strategy, siteSuffixes []string, siteStrategy Strategy) Strategy {
	return &srcSiteStrategy{
		srcStrategy:  srcStrategy,
		siteSuffixes: siteSuffixes,
		siteStrategy: siteStrategy,
	}
}

func hasPathSuffix(p, suffix string) bool {
	return p == suffix || strings.HasSuffix(p, "/"+suffix)
}

func (s *srcSiteStrategy) Plan(v *venv.Virtualenv, layout *ActionLayout, entry ManifestEntry) ([]Command, error) {
	for _, suffix := range s.siteSuffixes {
		if hasPathSuffix(entry.Path, suffix) {
			return s.siteStrategy.Plan(v, layout, entry)
		}
	}
	return s.srcStrategy.Plan(v, layout, entry)
}
