package app

import (
	"github.com/specialistvlad/behaviourgrid/internal/config"
	"github.com/specialistvlad/behaviourgrid/internal/hcl"
	"github.com/specialistvlad/behaviourgrid/internal/yaml"
)

// DefaultLoader reads both HCL and YAML configuration from the same paths.
func DefaultLoader() config.Loader {
	return config.Chain{hcl.NewLoader(), yaml.NewLoader()}
}
