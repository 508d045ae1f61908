package cmd

import (
	"fmt"

	"github.com/grovetools/ccs/pkg/models"
)

func parseResources(args []string) ([]models.Resource, error) {
	resources := make([]models.Resource, 0, len(args))
	for _, arg := range args {
		r, err := models.ParseResource(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", arg, err)
		}
		resources = append(resources, r)
	}
	return resources, nil
}

// SkipServiceAnnotation marks commands that run without loading a workspace.
const SkipServiceAnnotation = "ccs/skip-service"
