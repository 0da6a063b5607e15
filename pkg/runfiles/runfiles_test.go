package runfiles_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aspect-build/rules-py/pkg/runfiles"
	"github.com/buildbarn/bb-storage/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestParseManifest(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		manifest, err := runfiles.ParseManifest(strings.NewReader(
			"_main/bin/python /real/python\n" +
				"_main/path with spaces /real/target\n" +
				"malformed\n" +
				"_repo_mapping /real/_repo_mapping\n"))
		require.NoError(t, err)
		require.Equal(t, map[string]string{
			"_main/bin/python": "/real/python",
			"_main/path":       "with spaces /real/target",
			"_repo_mapping":    "/real/_repo_mapping",
		}, manifest)
	})

	t.Run("Empty", func(t *testing.T) {
		manifest, err := runfiles.ParseManifest(strings.NewReader(""))
		require.NoError(t, err)
		require.Empty(t, manifest)
	})
}

func TestParseRepoMapping(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		repoMapping, err := runfiles.ParseRepoMapping(strings.NewReader(
			",my_module,_main\n" +
				",my_protobuf,protobuf~3.19.2\n" +
				",my_workspace,_main\n" +
				",rules_rust,rules_rust\n" +
				"protobuf~3.19.2,protobuf,protobuf~3.19.2\n"))
		require.NoError(t, err)
		require.Equal(t, runfiles.RepoMapping{
			{SourceRepo: "", RepoAlias: "my_module"}:               "_main",
			{SourceRepo: "", RepoAlias: "my_protobuf"}:             "protobuf~3.19.2",
			{SourceRepo: "", RepoAlias: "my_workspace"}:            "_main",
			{SourceRepo: "", RepoAlias: "rules_rust"}:              "rules_rust",
			{SourceRepo: "protobuf~3.19.2", RepoAlias: "protobuf"}: "protobuf~3.19.2",
		}, repoMapping)
	})

	t.Run("TooFewFields", func(t *testing.T) {
		_, err := runfiles.ParseRepoMapping(strings.NewReader(",my_module,_main\n,invalid\n"))
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Line 2 of repo mapping has 2 fields, while 3 were expected"), err)
	})
}

func TestRlocationFrom(t *testing.T) {
	repoMapping := runfiles.RepoMapping{
		{SourceRepo: "", RepoAlias: "my_protobuf"}:             "protobuf~3.19.2",
		{SourceRepo: "protobuf~3.19.2", RepoAlias: "protobuf"}: "protobuf~3.19.2",
	}

	t.Run("DirectoryBased", func(t *testing.T) {
		r := runfiles.NewDirectoryBased("/runfiles", repoMapping)

		realPath, ok := r.Rlocation("my_protobuf/foo/bar.txt")
		require.True(t, ok)
		require.Equal(t, "/runfiles/protobuf~3.19.2/foo/bar.txt", realPath)

		realPath, ok = r.Rlocation("my_protobuf")
		require.True(t, ok)
		require.Equal(t, "/runfiles/protobuf~3.19.2", realPath)

		realPath, ok = r.RlocationFrom("protobuf/baz", "protobuf~3.19.2")
		require.True(t, ok)
		require.Equal(t, "/runfiles/protobuf~3.19.2/baz", realPath)

		// Unmapped repositories fall back to the literal path.
		realPath, ok = r.Rlocation("other_repo/file")
		require.True(t, ok)
		require.Equal(t, "/runfiles/other_repo/file", realPath)

		realPath, ok = r.Rlocation("/absolute/path")
		require.True(t, ok)
		require.Equal(t, "/absolute/path", realPath)
	})

	t.Run("ManifestBased", func(t *testing.T) {
		r := runfiles.NewManifestBased(map[string]string{
			"protobuf~3.19.2/foo/bar.txt": "/real/bar.txt",
			"_main/python":                "/real/python",
		}, repoMapping)

		realPath, ok := r.Rlocation("my_protobuf/foo/bar.txt")
		require.True(t, ok)
		require.Equal(t, "/real/bar.txt", realPath)

		realPath, ok = r.Rlocation("_main/python")
		require.True(t, ok)
		require.Equal(t, "/real/python", realPath)

		// Absence is not an error.
		_, ok = r.Rlocation("_main/missing")
		require.False(t, ok)
	})
}

func writeFile(t *testing.T, p, contents string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
}

func TestNew(t *testing.T) {
	t.Run("ManifestFileEnvironmentVariable", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "_repo_mapping"), ",my_repo,_main\n")
		manifestPath := filepath.Join(dir, "foo.runfiles_manifest")
		writeFile(t, manifestPath, "_main/a /real/a\n_repo_mapping "+filepath.Join(dir, "_repo_mapping")+"\n")

		r, err := runfiles.New(runfiles.Environment{ManifestFile: manifestPath})
		require.NoError(t, err)
		realPath, ok := r.Rlocation("my_repo/a")
		require.True(t, ok)
		require.Equal(t, "/real/a", realPath)
	})

	t.Run("MissingManifestFile", func(t *testing.T) {
		_, err := runfiles.New(runfiles.Environment{ManifestFile: filepath.Join(t.TempDir(), "nonexistent")})
		require.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("DirectoryEnvironmentVariable", func(t *testing.T) {
		dir := t.TempDir()
		r, err := runfiles.New(runfiles.Environment{Directory: dir})
		require.NoError(t, err)
		realPath, ok := r.Rlocation("_main/foo")
		require.True(t, ok)
		require.Equal(t, dir+"/_main/foo", realPath)
	})

	t.Run("DirectoryPrefersManifest", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "MANIFEST"), "_main/foo /elsewhere/foo\n")
		r, err := runfiles.New(runfiles.Environment{Directory: dir})
		require.NoError(t, err)
		realPath, ok := r.Rlocation("_main/foo")
		require.True(t, ok)
		require.Equal(t, "/elsewhere/foo", realPath)
		_, ok = r.Rlocation("_main/bar")
		require.False(t, ok)
	})

	t.Run("DirectoryRepoMapping", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "_repo_mapping"), ",alias,canonical~1.0\n")
		r, err := runfiles.New(runfiles.Environment{Directory: dir})
		require.NoError(t, err)
		realPath, ok := r.Rlocation("alias/file")
		require.True(t, ok)
		require.Equal(t, dir+"/canonical~1.0/file", realPath)
	})

	t.Run("FromDirectory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "_repo_mapping"), ",alias,canonical~1.0\n")
		r, err := runfiles.NewFromDirectory(dir)
		require.NoError(t, err)
		realPath, ok := r.Rlocation("alias/file")
		require.True(t, ok)
		require.Equal(t, dir+"/canonical~1.0/file", realPath)
	})

	t.Run("InvalidRepoMapping", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "_repo_mapping"), "invalid\n")
		_, err := runfiles.New(runfiles.Environment{Directory: dir})
		require.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestFindDirectory(t *testing.T) {
	t.Run("TestSourceDirectory", func(t *testing.T) {
		dir := t.TempDir()
		directory, err := runfiles.FindDirectory(runfiles.Environment{
			Directory:           filepath.Join(dir, "nonexistent"),
			TestSourceDirectory: dir,
		})
		require.NoError(t, err)
		require.Equal(t, dir, directory)
	})

	t.Run("SiblingDirectory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "bin", "tool"), "")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "bin", "tool.runfiles"), 0o755))

		directory, err := runfiles.FindDirectory(runfiles.Environment{
			Executable: filepath.Join(dir, "bin", "tool"),
		})
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "bin", "tool.runfiles"), directory)
	})

	t.Run("InsideRunfilesDirectory", func(t *testing.T) {
		dir := t.TempDir()
		executable := filepath.Join(dir, "tool.runfiles", "_main", "venv", "bin", "python")
		writeFile(t, executable, "")

		directory, err := runfiles.FindDirectory(runfiles.Environment{Executable: executable})
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "tool.runfiles"), directory)
	})

	t.Run("ThroughSymbolicLink", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "bazel-bin", "tool"), "")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "bazel-bin", "tool.runfiles"), 0o755))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "links"), 0o755))
		require.NoError(t, os.Symlink("../bazel-bin/tool", filepath.Join(dir, "links", "tool")))

		directory, err := runfiles.FindDirectory(runfiles.Environment{
			Executable: filepath.Join(dir, "links", "tool"),
		})
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "bazel-bin", "tool.runfiles"), filepath.Clean(directory))
	})

	t.Run("SymbolicLinkCycle", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Symlink("b", filepath.Join(dir, "a")))
		require.NoError(t, os.Symlink("a", filepath.Join(dir, "b")))

		_, err := runfiles.FindDirectory(runfiles.Environment{Executable: filepath.Join(dir, "a")})
		require.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("NotFound", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "tool"), "")

		_, err := runfiles.FindDirectory(runfiles.Environment{Executable: filepath.Join(dir, "tool")})
		require.Equal(t, codes.NotFound, status.Code(err))
	})
}
