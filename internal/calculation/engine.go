package calculation

import (
	"context"
	"fmt"
	"time"

	"github.com/rpgo/escape-velocity/internal/domain"
)

// nowFunc returns the current time (override in tests for determinism).
var nowFunc = time.Now

// SetNowFunc overrides the time provider (use only in tests).
func SetNowFunc(f func() time.Time) { nowFunc = f }

// Engine orchestrates a full forecasting run: validation, income schedule,
// trajectory simulation and aggregation.
type Engine struct {
	Simulator  *TrajectorySimulator
	Aggregator *Aggregator
	Logger     Logger
}

// NewEngine creates an engine. Options are passed to the trajectory simulator.
func NewEngine(opts ...SimulatorOption) *Engine {
	sim := NewTrajectorySimulator(opts...)
	return &Engine{
		Simulator:  sim,
		Aggregator: &Aggregator{Logger: sim.Logger},
		Logger:     sim.Logger,
	}
}

// SetLogger sets the logger for the engine and its parts. If nil is provided, a no-op logger is used.
func (e *Engine) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	e.Logger = l
	e.Simulator.Logger = l
	e.Aggregator.Logger = l
}

// Run executes a forecast for cfg.
func (e *Engine) Run(cfg domain.SimulationConfig) (*domain.SimulationReport, error) {
	return e.RunContext(context.Background(), cfg)
}

// RunContext executes a forecast, abandoning it between simulations once ctx
// is done. Errors are returned unmodified in type so callers can match them
// with errors.As.
func (e *Engine) RunContext(ctx context.Context, cfg domain.SimulationConfig) (*domain.SimulationReport, error) {
	if err := cfg.Validate(); err != nil {
		e.Logger.Errorf("configuration rejected: %v", err)
		return nil, err
	}

	start := nowFunc()
	e.Logger.Infof("starting forecast: %d simulations x %d years, seed %d, stream %s",
		cfg.NumSimulations, cfg.NumYears, cfg.Seed, e.Simulator.StreamMode)

	matrices, err := e.Simulator.RunContext(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("simulation failed: %w", err)
	}

	schedule := BuildIncomeSchedule(cfg)
	report, err := e.Aggregator.Aggregate(cfg, schedule, matrices)
	if err != nil {
		return nil, fmt.Errorf("aggregation failed: %w", err)
	}

	workers := e.Simulator.workerCount()
	if e.Simulator.StreamMode == domain.StreamSequential {
		workers = 1
	}
	report.Metadata = domain.RunMetadata{
		Seed:        cfg.Seed,
		StreamMode:  e.Simulator.StreamMode,
		Workers:     workers,
		GeneratedAt: start,
		Duration:    nowFunc().Sub(start),
	}
	e.Logger.Infof("forecast complete in %s: depleted %.2f%%, escape velocity %.2f%%",
		report.Metadata.Duration, report.Depletion.Percentage, report.EscapeVelocity.Percentage)
	return report, nil
}
