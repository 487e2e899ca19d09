package output

import (
	"encoding/json"

	"github.com/rpgo/escape-velocity/internal/domain"
)

// JSONFormatter serializes the simulation report as pretty-printed JSON.
// Raw trajectories are omitted; use the trajectories-csv formatter for them.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(report *domain.SimulationReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
