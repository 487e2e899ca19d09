package output

import (
	"github.com/rpgo/escape-velocity/internal/domain"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter serializes the simulation report as YAML.
type YAMLFormatter struct{}

func (y YAMLFormatter) Name() string { return "yaml" }

func (y YAMLFormatter) Format(report *domain.SimulationReport) ([]byte, error) {
	return yaml.Marshal(report)
}
