package population_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aspect-build/rules-py/pkg/population"
	"github.com/aspect-build/rules-py/pkg/venv"
	"github.com/stretchr/testify/require"
)

const testBinDirectory = "bazel-out/k8-fastbuild/bin"

// testEnvironment is a build action containing an empty virtual
// environment in the output directory of package "pkg".
type testEnvironment struct {
	root   string
	layout *population.ActionLayout
	venv   *venv.Virtualenv
}

func newTestEnvironment(t *testing.T) *testEnvironment {
	root := t.TempDir()
	actionDirectory := filepath.Join(root, "execroot", "_main")
	layout := population.NewActionLayout(actionDirectory, testBinDirectory)
	v := venv.NewVirtualenv(
		filepath.Join(actionDirectory, testBinDirectory, "pkg", "app.venv"),
		venv.PythonVersionInfo{Major: 3, Minor: 11})
	require.NoError(t, os.MkdirAll(v.SiteDirectory, 0o755))
	require.NoError(t, os.MkdirAll(v.BinDirectory, 0o755))
	return &testEnvironment{
		root:   root,
		layout: layout,
		venv:   v,
	}
}

// path returns an absolute path within the action directory.
func (e *testEnvironment) path(elem ...string) string {
	return filepath.Join(append([]string{e.layout.ActionDirectory}, elem...)...)
}

func writeFile(t *testing.T, p, contents string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
}

func readFile(t *testing.T, p string) string {
	contents, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(contents)
}

func mustParseEntry(t *testing.T, line string) population.ManifestEntry {
	entry, err := population.ParseManifestEntry(line)
	require.NoError(t, err)
	return entry
}
