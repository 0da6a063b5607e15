package population_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aspect-build/rules-py/pkg/logging"
	"github.com/aspect-build/rules-py/pkg/population"
	"github.com/aspect-build/rules-py/pkg/venv"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestExecutePlan(t *testing.T) {
	e := newTestEnvironment(t)
	writeFile(t, e.path("external", "pypi_foo", "site-packages", "foo", "core.py"), "x = 1\n")
	writeFile(t, e.path("external", "pypi_foo", "site-packages", "foo", "data.txt"), "data\n")
	writeFile(t, e.path("external", "pypi_foo", "bin", "foo"), "#!/dev/null\nimport foo\n")

	require.NoError(t, population.ExecutePlan(e.venv, []population.Command{
		population.Symlink{
			Source:      e.path("external", "pypi_foo", "site-packages", "foo", "core.py"),
			Destination: filepath.Join(e.venv.SiteDirectory, "foo", "core.py"),
		},
		population.Copy{
			Source:      e.path("external", "pypi_foo", "site-packages", "foo", "data.txt"),
			Destination: filepath.Join(e.venv.SiteDirectory, "foo", "data.txt"),
		},
		population.CopyAndPatch{
			Source:      e.path("external", "pypi_foo", "bin", "foo"),
			Destination: filepath.Join(e.venv.BinDirectory, "foo"),
		},
		population.PthEntry{
			Path:         "../../../../../../_main/pkg",
			RunfilesPath: "_main/pkg",
			ManifestLine: "_main/pkg",
		},
		population.PthEntry{
			Path:         "../../../../../../_main",
			RunfilesPath: "_main",
			ManifestLine: "_main",
		},
	}))

	t.Run("Symlink", func(t *testing.T) {
		target, err := os.Readlink(filepath.Join(e.venv.SiteDirectory, "foo", "core.py"))
		require.NoError(t, err)
		require.False(t, filepath.IsAbs(target))
		require.Equal(t, "x = 1\n", readFile(t, filepath.Join(e.venv.SiteDirectory, "foo", "core.py")))
	})

	t.Run("Copy", func(t *testing.T) {
		fileInfo, err := os.Lstat(filepath.Join(e.venv.SiteDirectory, "foo", "data.txt"))
		require.NoError(t, err)
		require.True(t, fileInfo.Mode().IsRegular())
		require.Equal(t, "data\n", readFile(t, filepath.Join(e.venv.SiteDirectory, "foo", "data.txt")))
	})

	t.Run("CopyAndPatch", func(t *testing.T) {
		require.Equal(t, population.RelocatableShebang+"import foo\n", readFile(t, filepath.Join(e.venv.BinDirectory, "foo")))
	})

	t.Run("PthFiles", func(t *testing.T) {
		require.Equal(t,
			"# Generated by Aspect py_binary\n"+
				"# Contains relative import paths to non site-package trees within the .runfiles\n"+
				"../../../../../../_main/pkg\n"+
				"../../../../../../_main\n",
			readFile(t, filepath.Join(e.venv.SiteDirectory, population.PthFileName)))
		require.Equal(t,
			"# Generated by Aspect py_binary\n"+
				"# Contains import paths relative to the root of the .runfiles tree\n"+
				"# @_main/pkg\n"+
				"_main/pkg\n"+
				"# @_main\n"+
				"_main\n",
			readFile(t, filepath.Join(e.venv.SiteDirectory, population.BzlpthFileName)))
	})

	t.Run("Relocation", func(t *testing.T) {
		// Moving the tree containing both the virtual
		// environment and its sources keeps symbolic links
		// valid.
		movedRoot := filepath.Join(e.root, "moved")
		require.NoError(t, os.Rename(filepath.Join(e.root, "execroot"), movedRoot))
		movedSiteDirectory := filepath.Join(movedRoot, "_main", testBinDirectory, "pkg", "app.venv", "lib", "python3.11", "site-packages")
		require.Equal(t, "x = 1\n", readFile(t, filepath.Join(movedSiteDirectory, "foo", "core.py")))
	})
}

func TestExecutePlanEmpty(t *testing.T) {
	// The .pth files are always created, even if no entries are
	// present.
	e := newTestEnvironment(t)
	require.NoError(t, population.ExecutePlan(e.venv, nil))
	require.Equal(t,
		"# Generated by Aspect py_binary\n# Contains relative import paths to non site-package trees within the .runfiles\n",
		readFile(t, filepath.Join(e.venv.SiteDirectory, population.PthFileName)))
	require.FileExists(t, filepath.Join(e.venv.SiteDirectory, population.BzlpthFileName))
}

// listTree returns the contents of a directory hierarchy, reading
// through symbolic links.
func listTree(t *testing.T, root string) map[string]string {
	tree := map[string]string{}
	require.NoError(t, filepath.Walk(root, func(p string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relativePath, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		switch {
		case fileInfo.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(p)
			if err != nil {
				return err
			}
			tree[relativePath] = "-> " + target
		case fileInfo.Mode().IsRegular():
			contents, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			tree[relativePath] = fileInfo.Mode().Perm().String() + " " + string(contents)
		}
		return nil
	}))
	return tree
}

func TestPopulateVenv(t *testing.T) {
	e := newTestEnvironment(t)
	interpreter := filepath.Join(e.root, "python3")
	writeFile(t, interpreter, "#!/bin/sh\n")
	writeFile(t, e.path("pkg", "app.py"), "")
	writeFile(t, e.path("external", "pypi_foo", "site-packages", "__init__.py"), "")
	writeFile(t, e.path("external", "pypi_foo", "site-packages", "foo", "__init__.py"), "")
	writeFile(t, e.path("external", "pypi_bar", "site-packages", "foo", "__init__.py"), "")
	writeFile(t, e.path("external", "pypi_bar", "site-packages", "bar.py"), "")
	writeFile(t, e.path("external", "pypi_foo", "bin", "foo"), "#!/usr/bin/env python3\nimport foo\n")
	entries := []population.ManifestEntry{
		mustParseEntry(t, "_main/pkg"),
		mustParseEntry(t, "pypi_foo/site-packages"),
		mustParseEntry(t, "pypi_bar/site-packages"),
	}
	strategy, err := population.NewStrategyForMode(population.ModeStaticSymlink)
	require.NoError(t, err)

	populate := func() map[string]string {
		var buf bytes.Buffer
		v, err := venv.CreateEmptyVenv(&venv.Options{
			Interpreter: interpreter,
			Version:     venv.PythonVersionInfo{Major: 3, Minor: 11},
			Location:    e.venv.HomeDirectory,
		})
		require.NoError(t, err)
		require.NoError(t, population.PopulateVenv(v, e.layout, entries, strategy, population.CollisionResolutionStrategyError, logging.NewConsoleLogger(&buf, &logging.NoEscapeSequences, false)))
		require.Empty(t, buf.String())
		return listTree(t, v.HomeDirectory)
	}

	tree := populate()
	require.NotContains(t, tree, filepath.Join("lib", "python3.11", "site-packages", "__init__.py"))
	require.Equal(t, "-> ../../../../../../../../../external/pypi_bar/site-packages/foo/__init__.py", tree[filepath.Join("lib", "python3.11", "site-packages", "foo", "__init__.py")])
	require.Equal(t, "-> ../../../../../../../../external/pypi_bar/site-packages/bar.py", tree[filepath.Join("lib", "python3.11", "site-packages", "bar.py")])
	require.Equal(t, "-rwxr-xr-x "+population.RelocatableShebang+"import foo\n", tree[filepath.Join("bin", "foo")])
	require.Contains(t, tree[filepath.Join("lib", "python3.11", "site-packages", population.PthFileName)], "../../../../../../_main/pkg\n")

	// Populating a clean destination yields the same tree.
	require.Equal(t, tree, populate())
}

func TestPopulateVenvCollisionLeavesNoArtifacts(t *testing.T) {
	e := newTestEnvironment(t)
	interpreter := filepath.Join(e.root, "python3")
	writeFile(t, interpreter, "#!/bin/sh\n")
	writeFile(t, e.path("pkg", "app.py"), "")
	writeFile(t, e.path("external", "pypi_foo", "site-packages", "mod.py"), "foo = 1\n")
	writeFile(t, e.path("external", "pypi_bar", "site-packages", "mod.py"), "bar = 1\n")
	entries := []population.ManifestEntry{
		mustParseEntry(t, "_main/pkg"),
		mustParseEntry(t, "pypi_foo/site-packages"),
		mustParseEntry(t, "pypi_bar/site-packages"),
	}
	strategy, err := population.NewStrategyForMode(population.ModeStaticSymlink)
	require.NoError(t, err)

	v, err := venv.CreateEmptyVenv(&venv.Options{
		Interpreter: interpreter,
		Version:     venv.PythonVersionInfo{Major: 3, Minor: 11},
		Location:    e.venv.HomeDirectory,
	})
	require.NoError(t, err)
	err = population.PopulateVenv(v, e.layout, entries, strategy, population.CollisionResolutionStrategyError, logging.NewConsoleLogger(io.Discard, &logging.NoEscapeSequences, false))
	require.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = os.Lstat(filepath.Join(v.SiteDirectory, population.PthFileName))
	require.True(t, os.IsNotExist(err))
	_, err = os.Lstat(filepath.Join(v.SiteDirectory, "mod.py"))
	require.True(t, os.IsNotExist(err))
}
