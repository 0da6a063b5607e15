package main

import (
	"context"
	"os"

	"github.com/aspect-build/rules-py/pkg/logging"
	"github.com/aspect-build/rules-py/pkg/shim"
	"github.com/buildbarn/bb-storage/pkg/program"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
)

// The interpreter shim that is installed as bin/python of a virtual
// environment. It locates the real interpreter and executes it, making
// it behave as if the virtual environment was activated.
func main() {
	program.RunMain(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return util.StatusWrapWithCode(err, codes.Internal, "Failed to obtain working directory")
		}
		// The executable reported by the operating system is only
		// used to validate relative values of argv[0].
		executable, _ := os.Executable()

		logger := logging.NewLogger(logging.Color_No, os.Getenv(shim.DebugEnvVar) != "")
		return shim.Run(&shim.Invocation{
			Args:             os.Args,
			Environ:          os.Environ(),
			WorkingDirectory: workingDirectory,
			Executable:       executable,
		}, logger, shim.DefaultExecFunc)
	})
}
