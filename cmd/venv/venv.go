package main

import (
	"os"
	"path/filepath"

	"github.com/aspect-build/rules-py/pkg/logging"
	"github.com/aspect-build/rules-py/pkg/population"
	"github.com/aspect-build/rules-py/pkg/venv"
	"github.com/buildbarn/bb-storage/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type venvOptions struct {
	repo                      string
	python                    string
	venvShim                  string
	location                  string
	pthFile                   string
	envFile                   string
	pthEntryPrefix            string
	binDir                    string
	venvName                  string
	version                   string
	metricsFile               string
	mode                      population.Mode
	collisionStrategy         population.CollisionResolutionStrategy
	color                     logging.Color
	colorName                 string
	debug                     bool
	includeSystemSitePackages bool
	includeUserSitePackages   bool
}

func (o *venvOptions) addFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.repo, "repo", "", "Name of the repository being built")
	flags.StringVar(&o.python, "python", "", "Path of the interpreter, or its runfiles path if it is not part of the action's inputs")
	flags.StringVar(&o.venvShim, "venv-shim", "", "Interpreter shim to install as bin/python")
	flags.StringVar(&o.location, "location", "", "Destination path of the virtual environment")
	flags.StringVar(&o.pthFile, "pth-file", "", "Manifest of import roots to add to the virtual environment")
	flags.StringVar(&o.envFile, "env-file", "", "File containing environment variables to set in the activate script")
	flags.StringVar(&o.pthEntryPrefix, "pth-entry-prefix", "", "Prefix to prepend to every .pth entry in dynamic-symlink mode")
	flags.StringVar(&o.binDir, "bin-dir", "", "Output directory of the build action, relative to its working directory")
	flags.StringVar(&o.venvName, "venv-name", "", "Name of the virtual environment displayed by the activate script")
	flags.StringVar(&o.version, "version", "", "Version of the interpreter, in the form X.Y or X.Y.Z")
	flags.StringVar(&o.metricsFile, "metrics-file", "", "Path to which population metrics are written in the Prometheus text format")
	flags.Var(modeValue{mode: &o.mode}, "mode", "Mechanism used to build the virtual environment: dynamic-symlink, static-copy, static-symlink or static-pth")
	flags.Var(collisionStrategyValue{strategy: &o.collisionStrategy}, "collision-strategy", "Action to take when multiple packages provide the same file: error, warning or ignore")
	flags.Var(colorValue{color: &o.color, name: &o.colorName}, "color", "Whether to decorate log output with colors: auto, yes or no")
	flags.BoolVar(&o.debug, "debug", false, "Enable debug output of the activate script and this tool")
	flags.BoolVar(&o.includeSystemSitePackages, "include-system-site-packages", false, "Make the system site-packages directory visible to the interpreter")
	flags.BoolVar(&o.includeUserSitePackages, "include-user-site-packages", false, "Make the user site-packages directory visible to the interpreter")
}

func newRootCommand() *cobra.Command {
	options := venvOptions{
		mode:              population.ModeDynamicSymlink,
		collisionStrategy: population.CollisionResolutionStrategyError,
		color:             logging.Color_Auto,
		colorName:         "auto",
	}
	cmd := &cobra.Command{
		Use:           "venv --python=PATH --location=DIR --pth-file=FILE --version=X.Y [flags]",
		Short:         "Create a Python virtual environment inside a build action",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			actionDirectory, err := os.Getwd()
			if err != nil {
				return util.StatusWrapWithCode(err, codes.Internal, "Failed to obtain working directory")
			}
			logger := logging.NewLogger(options.color, options.debug)
			if err := createVenv(&options, actionDirectory, logger); err != nil {
				return err
			}
			if options.metricsFile != "" {
				if err := prometheus.WriteToTextfile(options.metricsFile, prometheus.DefaultGatherer); err != nil {
					return util.StatusWrapfWithCode(err, codes.Internal, "Failed to write metrics to %#v", options.metricsFile)
				}
			}
			return nil
		},
	}
	options.addFlags(cmd.Flags())
	for _, name := range []string{"python", "location", "pth-file"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// createVenv creates an empty virtual environment and populates it in
// the requested mode. Relative paths are resolved against the working
// directory of the build action.
func createVenv(options *venvOptions, actionDirectory string, logger logging.Logger) error {
	if options.version == "" {
		return status.Error(codes.FailedPrecondition, "Version must be provided")
	}
	version, err := venv.ParsePythonVersionInfo(options.version)
	if err != nil {
		return err
	}
	if options.mode.IsStatic() {
		if options.repo == "" {
			return status.Errorf(codes.FailedPrecondition, "Repo must be provided for mode %s", options.mode)
		}
		if options.binDir == "" {
			return status.Errorf(codes.FailedPrecondition, "Bin directory must be provided for mode %s", options.mode)
		}
	}

	v, err := venv.CreateEmptyVenv(&venv.Options{
		Repo:                      options.repo,
		Interpreter:               options.python,
		Version:                   version,
		Location:                  resolvePath(actionDirectory, options.location),
		EnvFile:                   resolvePath(actionDirectory, options.envFile),
		Shim:                      resolvePath(actionDirectory, options.venvShim),
		Prompt:                    options.venvName,
		Debug:                     options.debug,
		IncludeSystemSitePackages: options.includeSystemSitePackages,
		IncludeUserSitePackages:   options.includeUserSitePackages,
	})
	if err != nil {
		return util.StatusWrap(err, "Failed to create virtual environment")
	}
	logger.Debugf("Created virtual environment %s", v.HomeDirectory)

	if !options.mode.IsStatic() {
		pthFile := population.PthFile{
			Source: resolvePath(actionDirectory, options.pthFile),
			Prefix: options.pthEntryPrefix,
		}
		if err := pthFile.SetUpSitePackages(v.SiteDirectory); err != nil {
			return util.StatusWrap(err, "Failed to set up site-packages")
		}
		return nil
	}

	entries, err := population.ReadManifestFile(resolvePath(actionDirectory, options.pthFile))
	if err != nil {
		return err
	}
	strategy, err := population.NewStrategyForMode(options.mode)
	if err != nil {
		return err
	}
	layout := population.NewActionLayout(actionDirectory, options.binDir)
	layout.MainRepo = options.repo
	if err := population.PopulateVenv(v, layout, entries, strategy, options.collisionStrategy, logger); err != nil {
		return util.StatusWrap(err, "Failed to populate virtual environment")
	}
	return nil
}

func resolvePath(directory, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(directory, p)
}
