package population

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aspect-build/rules-py/pkg/logging"
	"github.com/aspect-build/rules-py/pkg/venv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CollisionResolutionStrategy determines what happens when multiple
// commands target the same destination. In all cases the last command
// in manifest order is the one that is executed.
type CollisionResolutionStrategy int

const (
	// CollisionResolutionStrategyError reports all collisions and
	// aborts population.
	CollisionResolutionStrategyError CollisionResolutionStrategy = iota
	// CollisionResolutionStrategyLastWinsWarn reports all collisions
	// as warnings, and continues.
	CollisionResolutionStrategyLastWinsWarn
	// CollisionResolutionStrategyLastWinsSilent continues without
	// reporting collisions.
	CollisionResolutionStrategyLastWinsSilent
)

// ParseCollisionResolutionStrategy converts the name of a collision
// resolution strategy as provided on the command line.
func ParseCollisionResolutionStrategy(s string) (CollisionResolutionStrategy, error) {
	switch s {
	case "error":
		return CollisionResolutionStrategyError, nil
	case "warning":
		return CollisionResolutionStrategyLastWinsWarn, nil
	case "ignore":
		return CollisionResolutionStrategyLastWinsSilent, nil
	default:
		return 0, status.Errorf(codes.InvalidArgument, "Collision strategy only accepts \"error\", \"warning\" or \"ignore\", not %#v", s)
	}
}

func (s CollisionResolutionStrategy) String() string {
	switch s {
	case CollisionResolutionStrategyError:
		return "error"
	case CollisionResolutionStrategyLastWinsWarn:
		return "warning"
	case CollisionResolutionStrategyLastWinsSilent:
		return "ignore"
	default:
		return fmt.Sprintf("CollisionResolutionStrategy(%d)", int(s))
	}
}

// isUnderDirectory returns whether a path is equal to or contained in
// a directory.
func isUnderDirectory(p, directory string) bool {
	return p == directory || strings.HasPrefix(p, strings.TrimSuffix(directory, "/")+"/")
}

// isSitePackagesInit returns whether a path is an __init__.py file at
// the root of a site-packages directory. These are created by
// --legacy_create_init_files and have no meaning at that location.
func isSitePackagesInit(p string) bool {
	if filepath.Base(p) != "__init__.py" {
		return false
	}
	directory := filepath.Dir(p)
	return hasPathSuffix(directory, "site-packages") || hasPathSuffix(directory, "dist-packages")
}

func describeCommandSource(command Command) string {
	switch c := command.(type) {
	case Copy:
		return fmt.Sprintf("%s (Copy)", c.Source)
	case CopyAndPatch:
		return fmt.Sprintf("%s (Copy)", c.Source)
	case Symlink:
		return fmt.Sprintf("%s (Symlink)", c.Source)
	case PthEntry:
		return fmt.Sprintf("%s (.pth entry)", c.ManifestLine)
	default:
		panic("unknown command type")
	}
}

// ResolveCollisions deduplicates a plan by destination.
//
// Commands reading from the virtual environment itself are dropped, as
// are commands that would create __init__.py files at the root of a
// site-packages directory. If multiple commands target the same
// destination, the last one is kept. This is only considered a
// collision if the sources have different contents. Collisions are
// handled according to the collision resolution strategy. All of them
// are reported before failing.
//
// The resulting plan retains the order in which destinations were
// first encountered.
func ResolveCollisions(v *venv.Virtualenv, plan []Command, collisionResolutionStrategy CollisionResolutionStrategy, logger logging.Logger) ([]Command, error) {
	registerMetrics()

	var destinations []string
	commandsByDestination := map[string][]Command{}
	for _, command := range plan {
		if source, ok := commandSource(command); ok && isUnderDirectory(source, v.HomeDirectory) {
			populationCommandsDroppedTotal.WithLabelValues("self_reference").Inc()
			continue
		}
		destination := commandDestination(command)
		if _, ok := commandsByDestination[destination]; !ok {
			destinations = append(destinations, destination)
		}
		commandsByDestination[destination] = append(commandsByDestination[destination], command)
	}

	var resolvedPlan []Command
	var collisions []string
	for _, destination := range destinations {
		commands := commandsByDestination[destination]
		if _, ok := commands[0].(PthEntry); !ok && isSitePackagesInit(destination) {
			populationCommandsDroppedTotal.WithLabelValues("site_packages_init").Add(float64(len(commands)))
			continue
		}
		resolvedPlan = append(resolvedPlan, commands[len(commands)-1])
		if len(commands) == 1 {
			continue
		}
		populationCommandsDroppedTotal.WithLabelValues("collision").Add(float64(len(commands) - 1))

		if commandsAreEquivalent(commands) {
			populationCollisionsTotal.WithLabelValues("identical").Inc()
			continue
		}
		collisions = append(collisions, destination)
		switch collisionResolutionStrategy {
		case CollisionResolutionStrategyError:
			populationCollisionsTotal.WithLabelValues("error").Inc()
			logger.Errorf("Collision detected at destination %s", destination)
		case CollisionResolutionStrategyLastWinsWarn:
			populationCollisionsTotal.WithLabelValues("last_wins").Inc()
			logger.Warningf("Collision detected at destination %s", destination)
		default:
			populationCollisionsTotal.WithLabelValues("last_wins").Inc()
			continue
		}
		for _, command := range commands {
			logger.Info("  - Source: " + describeCommandSource(command))
		}
	}

	if len(collisions) > 0 && collisionResolutionStrategy == CollisionResolutionStrategyError {
		return nil, status.Errorf(codes.AlreadyExists, "Detected %d collisions at destinations %s", len(collisions), strings.Join(collisions, ", "))
	}
	return resolvedPlan, nil
}

// commandsAreEquivalent returns true if executing any of the commands
// yields the same result, meaning the choice between them is
// irrelevant.
func commandsAreEquivalent(commands []Command) bool {
	var sources []string
	for _, command := range commands {
		if source, ok := commandSource(command); ok {
			sources = append(sources, source)
		} else if _, ok := command.(PthEntry); !ok {
			return false
		}
	}
	if len(sources) == 0 {
		// Duplicate .pth entries.
		return true
	}
	if len(sources) != len(commands) {
		return false
	}
	// Distinguish copies that may get their shebang patched from
	// ones that don't.
	_, firstIsPatched := commands[0].(CopyAndPatch)
	for _, command := range commands[1:] {
		if _, isPatched := command.(CopyAndPatch); isPatched != firstIsPatched {
			return false
		}
	}
	return haveIdenticalContents(sources)
}
