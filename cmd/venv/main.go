package main

import (
	"context"

	"github.com/buildbarn/bb-storage/pkg/program"
)

func main() {
	program.RunMain(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
		return newRootCommand().ExecuteContext(ctx)
	})
}
