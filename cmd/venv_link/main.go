package main

import (
	"context"

	"github.com/buildbarn/bb-storage/pkg/program"
)

// Links a virtual environment produced by the build into the source
// tree, so that it can be picked up by IDEs. This tool is invoked
// through "bazel run".
func main() {
	program.RunMain(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
		return newRootCommand().ExecuteContext(ctx)
	})
}
