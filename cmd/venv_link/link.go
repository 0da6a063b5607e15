package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/buildbarn/bb-storage/pkg/util"
	"github.com/spf13/cobra"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Environment variables set by "bazel run" and the virtual
// environment's interpreter.
const (
	virtualEnvEnvVar            = "VIRTUAL_ENV"
	runfilesDirectoryEnvVar     = "RUNFILES_DIR"
	buildWorkingDirectoryEnvVar = "BUILD_WORKING_DIRECTORY"
)

// linkTarget describes where a virtual environment is linked.
type linkTarget struct {
	VenvHome    string
	Destination string
	Name        string
}

func (lt *linkTarget) path() string {
	return filepath.Join(lt.Destination, lt.Name)
}

func getenvRealPath(getenv func(string) string, name string) (string, error) {
	value := getenv(name)
	if value == "" {
		return "", status.Errorf(codes.FailedPrecondition, "$%s is not set, meaning this tool was not invoked through \"bazel run\"", name)
	}
	p, err := filepath.EvalSymlinks(value)
	if err != nil {
		return "", util.StatusWrapfWithCode(err, codes.NotFound, "Failed to resolve $%s", name)
	}
	return p, nil
}

// newLinkTarget computes the default location of the link. It is placed
// in the source tree at the same location as the virtual environment
// inside its repository, and has the same name.
func newLinkTarget(getenv func(string) string) (*linkTarget, error) {
	venvHome, err := getenvRealPath(getenv, virtualEnvEnvVar)
	if err != nil {
		return nil, err
	}
	runfilesDirectory, err := getenvRealPath(getenv, runfilesDirectoryEnvVar)
	if err != nil {
		return nil, err
	}
	buildWorkingDirectory, err := getenvRealPath(getenv, buildWorkingDirectoryEnvVar)
	if err != nil {
		return nil, err
	}

	runfilesPath, err := filepath.Rel(runfilesDirectory, venvHome)
	if err != nil || runfilesPath == ".." || strings.HasPrefix(runfilesPath, "../") {
		return nil, status.Errorf(codes.FailedPrecondition, "Virtual environment %#v is not located in runfiles directory %#v", venvHome, runfilesDirectory)
	}
	// Strip the repository name.
	_, repoPath, _ := strings.Cut(runfilesPath, "/")
	return &linkTarget{
		VenvHome:    venvHome,
		Destination: filepath.Join(buildWorkingDirectory, filepath.Dir(repoPath)),
		Name:        filepath.Base(venvHome),
	}, nil
}

// createLink creates a symbolic link pointing to the virtual
// environment. An existing link pointing elsewhere is replaced.
func createLink(lt *linkTarget, w io.Writer) error {
	linkPath := lt.path()
	fmt.Fprintf(w, "Linking: %s -> %s\n\nTo activate the virtualenv run:\n    source %s/bin/activate\n\n", lt.VenvHome, linkPath, linkPath)

	if target, err := os.Readlink(linkPath); err == nil && target == lt.VenvHome {
		fmt.Fprintln(w, "Link is up to date!")
		return nil
	}
	if err := os.Remove(linkPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to remove %#v", linkPath)
	}
	if err := os.Symlink(lt.VenvHome, linkPath); err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to create symbolic link %#v", linkPath)
	}
	fmt.Fprintln(w, "Link created!")
	return nil
}

func newRootCommand() *cobra.Command {
	var venvName, dest string
	cmd := &cobra.Command{
		Use:           "venv_link [--venv-name=NAME] [--dest=DIR]",
		Short:         "Create a symbolic link to a virtual environment in the source tree",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, err := newLinkTarget(os.Getenv)
			if err != nil {
				return err
			}
			if venvName != "" {
				lt.Name = venvName
			}
			if dest != "" {
				lt.Destination = dest
			}
			return createLink(lt, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&venvName, "venv-name", "", "Name to link the virtualenv under, defaulting to its own name")
	cmd.Flags().StringVar(&dest, "dest", "", "Directory to link the virtualenv into, defaulting to its location in the source tree")
	return cmd
}
