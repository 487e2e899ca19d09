package calculation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/rpgo/escape-velocity/internal/domain"
)

// TrajectorySimulator evolves one portfolio balance per simulated future.
type TrajectorySimulator struct {
	StreamMode domain.StreamMode
	Workers    int
	Logger     Logger
}

// SimulatorOption configures a TrajectorySimulator.
type SimulatorOption func(*TrajectorySimulator)

// WithStreamMode selects per-simulation substreams or one sequential stream.
func WithStreamMode(mode domain.StreamMode) SimulatorOption {
	return func(ts *TrajectorySimulator) {
		if mode != "" {
			ts.StreamMode = mode
		}
	}
}

// WithWorkers bounds the number of simulations run concurrently. Values
// below 1 fall back to GOMAXPROCS.
func WithWorkers(n int) SimulatorOption {
	return func(ts *TrajectorySimulator) { ts.Workers = n }
}

// WithLogger sets the logger. A nil logger is replaced by NopLogger.
func WithLogger(l Logger) SimulatorOption {
	return func(ts *TrajectorySimulator) {
		if l == nil {
			l = NopLogger{}
		}
		ts.Logger = l
	}
}

// NewTrajectorySimulator creates a simulator using per-simulation substreams
// by default.
func NewTrajectorySimulator(opts ...SimulatorOption) *TrajectorySimulator {
	ts := &TrajectorySimulator{
		StreamMode: domain.StreamPerSimulation,
		Logger:     NopLogger{},
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// workerCount returns the effective concurrency limit.
func (ts *TrajectorySimulator) workerCount() int {
	if ts.Workers > 0 {
		return ts.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Run validates cfg and produces fully populated trajectory matrices.
func (ts *TrajectorySimulator) Run(cfg domain.SimulationConfig) (*domain.TrajectoryMatrices, error) {
	return ts.RunContext(context.Background(), cfg)
}

// RunContext is Run with an orchestration context: once ctx is done no new
// simulation is started and the run is abandoned without partial results.
// Simulations already in flight complete their full horizon.
func (ts *TrajectorySimulator) RunContext(ctx context.Context, cfg domain.SimulationConfig) (*domain.TrajectoryMatrices, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	schedule := BuildIncomeSchedule(cfg)
	matrices := domain.NewTrajectoryMatrices(cfg.NumSimulations, cfg.NumYears)

	switch ts.StreamMode {
	case domain.StreamSequential:
		ts.Logger.Debugf("running %d simulations sequentially from seed %d", cfg.NumSimulations, cfg.Seed)
		sampler := NewNormalSampler(NewRandomSource(cfg.Seed))
		for s := 0; s < cfg.NumSimulations; s++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("simulation abandoned at %d of %d: %w", s, cfg.NumSimulations, err)
			}
			ts.simulate(cfg, schedule, sampler, matrices, s)
		}
	case domain.StreamPerSimulation:
		if err := ts.runParallel(ctx, cfg, schedule, matrices); err != nil {
			return nil, err
		}
	default:
		return nil, domain.NewConfigError("stream_mode", "unknown stream mode %q", ts.StreamMode)
	}

	last := cfg.NumYears - 1
	for s, row := range matrices.Assets {
		ts.Logger.Tracef("simulation %d: ending balance %.2f, unexpected expenses %d",
			s, row[last], countNonZero(matrices.UnexpectedExpenses[s]))
	}
	return matrices, nil
}

// runParallel fans simulations out over a bounded pool. Each simulation owns
// a substream seeded from (cfg.Seed, s), so output does not depend on
// scheduling.
func (ts *TrajectorySimulator) runParallel(ctx context.Context, cfg domain.SimulationConfig, schedule domain.IncomeSchedule, matrices *domain.TrajectoryMatrices) error {
	workers := ts.workerCount()
	ts.Logger.Debugf("running %d simulations on %d workers from seed %d", cfg.NumSimulations, workers, cfg.Seed)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	var abandoned error
	for s := 0; s < cfg.NumSimulations; s++ {
		if err := ctx.Err(); err != nil {
			abandoned = fmt.Errorf("simulation abandoned at %d of %d: %w", s, cfg.NumSimulations, err)
			break
		}
		semaphore <- struct{}{} // Acquire semaphore
		wg.Add(1)
		go func(simIndex int) {
			defer wg.Done()
			defer func() { <-semaphore }() // Release semaphore

			sampler := NewNormalSampler(NewRandomSource(SubstreamSeed(cfg.Seed, simIndex)))
			ts.simulate(cfg, schedule, sampler, matrices, simIndex)
		}(s)
	}

	wg.Wait()
	return abandoned
}

// simulate runs every year of simulation s. Draw order per year is fixed:
// return (only for a positive balance), expense, unexpected expense.
func (ts *TrajectorySimulator) simulate(cfg domain.SimulationConfig, schedule domain.IncomeSchedule, sampler *NormalSampler, m *domain.TrajectoryMatrices, s int) {
	balance := cfg.InitialAssets
	meanReturn := cfg.ExpectedReturnMean / 100
	sdReturn := cfg.ExpectedReturnSD / 100

	for y := 0; y < cfg.NumYears; y++ {
		year := y + 1
		if amount, ok := cfg.LumpSumFor(year); ok {
			balance += amount
			m.LumpSums[s][y] = amount
		}

		var returnDollars float64
		if balance > 0 {
			returnDollars = sampler.Sample(meanReturn, sdReturn) * balance
		}

		expenses := sampler.Sample(cfg.ExpectedExpenseMean, cfg.ExpectedExpenseSD)
		expenses *= math.Pow(1+cfg.InflationRate, float64(y))

		// Unexpected expenses are flat, not inflation-scaled.
		if sampler.Uniform() < cfg.UnexpectedExpenseChance {
			expenses += cfg.UnexpectedExpenseAmount
			m.UnexpectedExpenses[s][y] = cfg.UnexpectedExpenseAmount
		}

		income := schedule.IncomeFor(y)
		taxesPaid := shortfallTax(expenses, income, cfg.TaxRate)

		balance += returnDollars - expenses - taxesPaid + income

		m.Assets[s][y] = balance
		m.ReturnDollars[s][y] = returnDollars
		m.Expenses[s][y] = expenses
		m.TaxesPaid[s][y] = taxesPaid
	}
}

func countNonZero(values []float64) int {
	n := 0
	for _, v := range values {
		if v != 0 {
			n++
		}
	}
	return n
}

// shortfallTax returns the tax on assets sold so that after-tax proceeds cover
// expenses above income. No tax is due when income covers expenses.
func shortfallTax(expenses, income, taxRate float64) float64 {
	if expenses <= income {
		return 0
	}
	shortfall := expenses - income
	assetsSold := shortfall / (1 - taxRate)
	return assetsSold - shortfall
}
