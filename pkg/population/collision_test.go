package population_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/aspect-build/rules-py/pkg/logging"
	"github.com/aspect-build/rules-py/pkg/population"
	"github.com/buildbarn/bb-storage/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestParseCollisionResolutionStrategy(t *testing.T) {
	for _, strategy := range []population.CollisionResolutionStrategy{
		population.CollisionResolutionStrategyError,
		population.CollisionResolutionStrategyLastWinsWarn,
		population.CollisionResolutionStrategyLastWinsSilent,
	} {
		parsed, err := population.ParseCollisionResolutionStrategy(strategy.String())
		require.NoError(t, err)
		require.Equal(t, strategy, parsed)
	}

	_, err := population.ParseCollisionResolutionStrategy("panic")
	testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Collision strategy only accepts \"error\", \"warning\" or \"ignore\", not \"panic\""), err)
}

func TestResolveCollisions(t *testing.T) {
	e := newTestEnvironment(t)
	fooA := e.path("external", "pypi_a", "site-packages", "foo.py")
	fooB := e.path("external", "pypi_b", "site-packages", "foo.py")
	fooC := e.path("external", "pypi_c", "site-packages", "foo.py")
	writeFile(t, fooA, "a = 1\n")
	writeFile(t, fooB, "b = 1\n")
	writeFile(t, fooC, "a = 1\n")
	barA := e.path("external", "pypi_a", "site-packages", "bar.py")
	barB := e.path("external", "pypi_b", "site-packages", "bar.py")
	writeFile(t, barA, "")
	writeFile(t, barB, "bar = 1\n")
	fooDestination := filepath.Join(e.venv.SiteDirectory, "foo.py")
	barDestination := filepath.Join(e.venv.SiteDirectory, "bar.py")

	newLogger := func() (*bytes.Buffer, logging.Logger) {
		var buf bytes.Buffer
		return &buf, logging.NewConsoleLogger(&buf, &logging.NoEscapeSequences, false)
	}

	t.Run("NoCollisions", func(t *testing.T) {
		buf, logger := newLogger()
		plan := []population.Command{
			population.PthEntry{Path: "../a", RunfilesPath: "_main/a", ManifestLine: "_main/a"},
			population.Symlink{Source: fooA, Destination: fooDestination},
		}
		resolvedPlan, err := population.ResolveCollisions(e.venv, plan, population.CollisionResolutionStrategyError, logger)
		require.NoError(t, err)
		require.Equal(t, plan, resolvedPlan)
		require.Empty(t, buf.String())
	})

	t.Run("IdenticalContents", func(t *testing.T) {
		// Sources with identical contents are not considered
		// collisions, as the outcome is the same.
		buf, logger := newLogger()
		resolvedPlan, err := population.ResolveCollisions(e.venv, []population.Command{
			population.Copy{Source: fooA, Destination: fooDestination},
			population.Copy{Source: fooC, Destination: fooDestination},
		}, population.CollisionResolutionStrategyError, logger)
		require.NoError(t, err)
		require.Equal(t, []population.Command{
			population.Copy{Source: fooC, Destination: fooDestination},
		}, resolvedPlan)
		require.Empty(t, buf.String())
	})

	t.Run("DuplicatePthEntries", func(t *testing.T) {
		_, logger := newLogger()
		entry := population.PthEntry{Path: "../a", RunfilesPath: "_main/a", ManifestLine: "_main/a"}
		resolvedPlan, err := population.ResolveCollisions(e.venv, []population.Command{entry, entry}, population.CollisionResolutionStrategyError, logger)
		require.NoError(t, err)
		require.Equal(t, []population.Command{entry}, resolvedPlan)
	})

	t.Run("PatchedAndUnpatched", func(t *testing.T) {
		// Even with identical contents, patching a script may
		// yield different results.
		_, logger := newLogger()
		_, err := population.ResolveCollisions(e.venv, []population.Command{
			population.Copy{Source: fooA, Destination: fooDestination},
			population.CopyAndPatch{Source: fooC, Destination: fooDestination},
		}, population.CollisionResolutionStrategyError, logger)
		require.Equal(t, codes.AlreadyExists, status.Code(err))
	})

	t.Run("Error", func(t *testing.T) {
		// All collisions are reported before failing.
		buf, logger := newLogger()
		_, err := population.ResolveCollisions(e.venv, []population.Command{
			population.Symlink{Source: fooA, Destination: fooDestination},
			population.Symlink{Source: barA, Destination: barDestination},
			population.Symlink{Source: fooB, Destination: fooDestination},
			population.Symlink{Source: barB, Destination: barDestination},
		}, population.CollisionResolutionStrategyError, logger)
		testutil.RequireEqualStatus(t, status.Errorf(codes.AlreadyExists, "Detected 2 collisions at destinations %s, %s", fooDestination, barDestination), err)
		require.Contains(t, buf.String(), "Collision detected at destination "+fooDestination)
		require.Contains(t, buf.String(), "Collision detected at destination "+barDestination)
		require.Contains(t, buf.String(), "  - Source: "+fooA+" (Symlink)")
		require.Contains(t, buf.String(), "  - Source: "+fooB+" (Symlink)")
	})

	t.Run("LastWinsWarn", func(t *testing.T) {
		buf, logger := newLogger()
		resolvedPlan, err := population.ResolveCollisions(e.venv, []population.Command{
			population.Copy{Source: fooA, Destination: fooDestination},
			population.Copy{Source: barA, Destination: barDestination},
			population.Copy{Source: fooB, Destination: fooDestination},
		}, population.CollisionResolutionStrategyLastWinsWarn, logger)
		require.NoError(t, err)
		require.Equal(t, []population.Command{
			population.Copy{Source: fooB, Destination: fooDestination},
			population.Copy{Source: barA, Destination: barDestination},
		}, resolvedPlan)
		require.Contains(t, buf.String(), "Collision detected at destination "+fooDestination)
		require.Contains(t, buf.String(), "  - Source: "+fooB+" (Copy)")
	})

	t.Run("LastWinsSilent", func(t *testing.T) {
		buf, logger := newLogger()
		resolvedPlan, err := population.ResolveCollisions(e.venv, []population.Command{
			population.Copy{Source: fooA, Destination: fooDestination},
			population.Copy{Source: fooB, Destination: fooDestination},
		}, population.CollisionResolutionStrategyLastWinsSilent, logger)
		require.NoError(t, err)
		require.Equal(t, []population.Command{
			population.Copy{Source: fooB, Destination: fooDestination},
		}, resolvedPlan)
		require.Empty(t, buf.String())
	})

	t.Run("SitePackagesInit", func(t *testing.T) {
		_, logger := newLogger()
		initA := e.path("external", "pypi_a", "site-packages", "__init__.py")
		initB := e.path("external", "pypi_b", "site-packages", "__init__.py")
		writeFile(t, initA, "")
		writeFile(t, initB, "# Generated\n")
		nestedInit := population.Symlink{
			Source:      e.path("external", "pypi_a", "site-packages", "foo", "__init__.py"),
			Destination: filepath.Join(e.venv.SiteDirectory, "foo", "__init__.py"),
		}
		resolvedPlan, err := population.ResolveCollisions(e.venv, []population.Command{
			population.Symlink{Source: initA, Destination: filepath.Join(e.venv.SiteDirectory, "__init__.py")},
			population.Symlink{Source: initB, Destination: filepath.Join(e.venv.SiteDirectory, "__init__.py")},
			nestedInit,
		}, population.CollisionResolutionStrategyError, logger)
		require.NoError(t, err)
		require.Equal(t, []population.Command{nestedInit}, resolvedPlan)
	})

	t.Run("SelfReference", func(t *testing.T) {
		// Files inside the virtual environment itself must
		// never be used as sources.
		_, logger := newLogger()
		resolvedPlan, err := population.ResolveCollisions(e.venv, []population.Command{
			population.Copy{
				Source:      filepath.Join(e.venv.SiteDirectory, "foo.py"),
				Destination: fooDestination,
			},
			population.Copy{Source: fooA, Destination: fooDestination},
		}, population.CollisionResolutionStrategyError, logger)
		require.NoError(t, err)
		require.Equal(t, []population.Command{
			population.Copy{Source: fooA, Destination: fooDestination},
		}, resolvedPlan)
	})
}
