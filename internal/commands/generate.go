package commands

import (
	"context"

	"foundrylabs/foundryctl/internal/core"
	"foundrylabs/foundryctl/internal/recipes"
)

// Generate renders every prompt in the prompts file into the docs
// directory.
func Generate(ctx context.Context, sys core.System) error {
	gen := recipes.NewGenerator(sys.GetClient(), sys.GetConfig(), sys.GetLogger())
	return gen.Run(ctx)
}
