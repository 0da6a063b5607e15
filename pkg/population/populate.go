package population

import (
	"github.com/aspect-build/rules-py/pkg/logging"
	"github.com/aspect-build/rules-py/pkg/venv"
	"github.com/buildbarn/bb-storage/pkg/util"
)

// PlanEntries invokes a strategy for every manifest entry, returning
// the concatenation of the resulting plans.
func PlanEntries(v *venv.Virtualenv, layout *ActionLayout, entries []ManifestEntry, strategy Strategy) ([]Command, error) {
	registerMetrics()

	var plan []Command
	for _, entry := range entries {
		entryPlan, err := strategy.Plan(v, layout, entry)
		if err != nil {
			return nil, util.StatusWrapf(err, "Failed to plan manifest entry %#v", entry.Line)
		}
		for _, command := range entryPlan {
			populationCommandsPlannedTotal.WithLabelValues(commandKind(command)).Inc()
		}
		plan = append(plan, entryPlan...)
	}
	return plan, nil
}

// PopulateVenv fills the site-packages and bin directories of a virtual
// environment created by venv.CreateEmptyVenv with the import roots
// listed in a manifest.
func PopulateVenv(v *venv.Virtualenv, layout *ActionLayout, entries []ManifestEntry, strategy Strategy, collisionResolutionStrategy CollisionResolutionStrategy, logger logging.Logger) error {
	plan, err := PlanEntries(v, layout, entries, strategy)
	if err != nil {
		return err
	}
	logger.Debugf("Planned %d commands for %d manifest entries", len(plan), len(entries))

	resolvedPlan, err := ResolveCollisions(v, plan, collisionResolutionStrategy, logger)
	if err != nil {
		return err
	}
	if err := ExecutePlan(v, resolvedPlan); err != nil {
		return err
	}
	logger.Debugf("Executed %d commands", len(resolvedPlan))
	return nil
}
