package calculation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rpgo/escape-velocity/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// growthOnlyConfig is a deterministic portfolio compounding at 7% with no
// spending, income or taxes.
func growthOnlyConfig() domain.SimulationConfig {
	return domain.SimulationConfig{
		Seed:               42,
		NumYears:           3,
		NumSimulations:     1000,
		InitialAssets:      100000,
		ExpectedReturnMean: 7,
	}
}

// stochasticConfig exercises every random draw.
func stochasticConfig() domain.SimulationConfig {
	return domain.SimulationConfig{
		Seed:                    7,
		NumYears:                20,
		NumSimulations:          200,
		TaxRate:                 0.15,
		InflationRate:           0.03,
		DepletionThreshold:      10000,
		InitialAssets:           500000,
		ExpectedReturnMean:      6,
		ExpectedReturnSD:        12,
		ExpectedExpenseMean:     40000,
		ExpectedExpenseSD:       4000,
		UnexpectedExpenseChance: 0.2,
		UnexpectedExpenseAmount: 10000,
		PassiveIncome:           5000,
		PassiveIncomeGrowthRate: 0.02,
		ActiveIncome:            30000,
		ActiveIncomeGrowthRate:  0.03,
		YearsToWork:             3,
		LumpSums:                map[int]float64{5: -20000, 10: 50000},
	}
}

func TestTrajectorySimulator_Shape(t *testing.T) {
	cfg := stochasticConfig()
	m, err := NewTrajectorySimulator().Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.NumSimulations, m.NumSimulations())
	assert.Equal(t, cfg.NumYears, m.NumYears())
	for s := 0; s < cfg.NumSimulations; s++ {
		require.Len(t, m.ReturnDollars[s], cfg.NumYears)
		require.Len(t, m.Expenses[s], cfg.NumYears)
		require.Len(t, m.TaxesPaid[s], cfg.NumYears)
		for y := 0; y < cfg.NumYears; y++ {
			assert.False(t, math.IsNaN(m.Assets[s][y]), "assets[%d][%d]", s, y)
			assert.GreaterOrEqual(t, m.TaxesPaid[s][y], 0.0)
		}
	}
}

func TestTrajectorySimulator_GrowthOnly(t *testing.T) {
	cfg := growthOnlyConfig()
	m, err := NewTrajectorySimulator().Run(cfg)
	require.NoError(t, err)

	want := []float64{107000, 114490, 122504.3}
	for s := 0; s < cfg.NumSimulations; s++ {
		assert.InDeltaSlice(t, want, m.Assets[s], 1e-6)
		assert.InDeltaSlice(t, []float64{7000, 7490, 8014.3}, m.ReturnDollars[s], 1e-6)
		assert.Equal(t, []float64{0, 0, 0}, m.Expenses[s])
		assert.Equal(t, []float64{0, 0, 0}, m.TaxesPaid[s])
	}

	rows, err := ResultsTable(m, cfg)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, i+1, row.Year)
		assert.InDelta(t, want[i], row.Assets.InexactFloat64(), 1e-6)
		assert.True(t, row.Expenses.IsZero())
	}
}

func TestTrajectorySimulator_DeterministicAcrossWorkers(t *testing.T) {
	cfg := stochasticConfig()

	single, err := NewTrajectorySimulator(WithWorkers(1)).Run(cfg)
	require.NoError(t, err)
	many, err := NewTrajectorySimulator(WithWorkers(8)).Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, single.Assets, many.Assets)
	assert.Equal(t, single.Expenses, many.Expenses)
	assert.Equal(t, single.UnexpectedExpenses, many.UnexpectedExpenses)
}

func TestTrajectorySimulator_SequentialStream(t *testing.T) {
	cfg := stochasticConfig()
	sequential := NewTrajectorySimulator(WithStreamMode(domain.StreamSequential))

	first, err := sequential.Run(cfg)
	require.NoError(t, err)
	second, err := sequential.Run(cfg)
	require.NoError(t, err)
	assert.Equal(t, first.Assets, second.Assets)

	perSim, err := NewTrajectorySimulator().Run(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, first.Assets, perSim.Assets)

	cfg.Seed++
	reseeded, err := sequential.Run(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, first.Assets, reseeded.Assets)
}

func TestTrajectorySimulator_ZeroVarianceRecurrence(t *testing.T) {
	cfg := domain.SimulationConfig{
		Seed:                    3,
		NumYears:                10,
		NumSimulations:          25,
		TaxRate:                 0.2,
		InflationRate:           0.02,
		InitialAssets:           1000000,
		ExpectedReturnMean:      5,
		ExpectedExpenseMean:     50000,
		PassiveIncome:           5000,
		PassiveIncomeGrowthRate: 0.01,
		ActiveIncome:            30000,
		ActiveIncomeGrowthRate:  0.01,
		YearsToWork:             2,
	}

	m, err := NewTrajectorySimulator().Run(cfg)
	require.NoError(t, err)

	balance := cfg.InitialAssets
	for y := 0; y < cfg.NumYears; y++ {
		ret := 0.05 * balance
		expenses := 50000 * math.Pow(1.02, float64(y))
		income := 5000 * math.Pow(1.01, float64(y))
		if y < 2 {
			income += 30000 * math.Pow(1.01, float64(y))
		}
		tax := 0.0
		if expenses > income {
			tax = (expenses-income)/0.8 - (expenses - income)
		}
		balance += ret - expenses - tax + income

		for s := 0; s < cfg.NumSimulations; s++ {
			assert.InDelta(t, balance, m.Assets[s][y], 1e-6, "sim %d year %d", s, y+1)
			assert.InDelta(t, tax, m.TaxesPaid[s][y], 1e-9)
		}
	}
}

func TestTrajectorySimulator_LumpSumPlacement(t *testing.T) {
	cfg := domain.SimulationConfig{
		Seed:           1,
		NumYears:       3,
		NumSimulations: 4,
		InitialAssets:  100000,
		LumpSums:       map[int]float64{2: 10000},
	}

	m, err := NewTrajectorySimulator().Run(cfg)
	require.NoError(t, err)

	for s := 0; s < cfg.NumSimulations; s++ {
		assert.Equal(t, []float64{100000, 110000, 110000}, m.Assets[s])
		assert.Equal(t, []float64{0, 10000, 0}, m.LumpSums[s])
	}
}

func TestTrajectorySimulator_NegativeBalanceContinues(t *testing.T) {
	cfg := domain.SimulationConfig{
		Seed:                1,
		NumYears:            3,
		NumSimulations:      2,
		InitialAssets:       1000,
		ExpectedReturnMean:  10,
		ExpectedExpenseMean: 50000,
	}

	m, err := NewTrajectorySimulator().Run(cfg)
	require.NoError(t, err)

	for s := 0; s < cfg.NumSimulations; s++ {
		assert.InDeltaSlice(t, []float64{-48900, -98900, -148900}, m.Assets[s], 1e-6)
		assert.InDeltaSlice(t, []float64{100, 0, 0}, m.ReturnDollars[s], 1e-9)
	}
}

func TestTrajectorySimulator_UnexpectedExpenseAlwaysHits(t *testing.T) {
	cfg := growthOnlyConfig()
	cfg.NumSimulations = 10
	cfg.UnexpectedExpenseChance = 1
	cfg.UnexpectedExpenseAmount = 2500
	cfg.InflationRate = 0.5

	m, err := NewTrajectorySimulator().Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, []int{10, 10, 10}, m.UnexpectedExpenseHits())
	for s := 0; s < cfg.NumSimulations; s++ {
		assert.Equal(t, []float64{2500, 2500, 2500}, m.Expenses[s])
	}
}

func TestShortfallTax(t *testing.T) {
	tests := []struct {
		name     string
		expenses float64
		income   float64
		rate     float64
		want     float64
	}{
		{"income covers expenses", 40000, 50000, 0.2, 0},
		{"exact cover", 50000, 50000, 0.2, 0},
		{"shortfall grossed up", 60000, 40000, 0.2, 5000},
		{"zero rate", 60000, 40000, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, shortfallTax(tt.expenses, tt.income, tt.rate), 1e-9)
		})
	}
}

func TestTrajectorySimulator_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.SimulationConfig)
		wantErr error
	}{
		{"zero years", func(c *domain.SimulationConfig) { c.NumYears = 0 }, domain.ErrConfig},
		{"zero simulations", func(c *domain.SimulationConfig) { c.NumSimulations = 0 }, domain.ErrConfig},
		{"lump sum beyond horizon", func(c *domain.SimulationConfig) { c.LumpSums = map[int]float64{4: 1} }, domain.ErrConfig},
		{"tax rate of one", func(c *domain.SimulationConfig) { c.TaxRate = 1 }, domain.ErrDomain},
		{"NaN assets", func(c *domain.SimulationConfig) { c.InitialAssets = math.NaN() }, domain.ErrNumeric},
		{"infinite return", func(c *domain.SimulationConfig) { c.ExpectedReturnMean = math.Inf(1) }, domain.ErrNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := growthOnlyConfig()
			tt.mutate(&cfg)

			m, err := NewTrajectorySimulator().Run(cfg)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTrajectorySimulator_UnknownStreamMode(t *testing.T) {
	ts := NewTrajectorySimulator(WithStreamMode("shuffled"))
	_, err := ts.Run(growthOnlyConfig())

	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "stream_mode", cfgErr.Field)
}

func TestTrajectorySimulator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, mode := range []domain.StreamMode{domain.StreamPerSimulation, domain.StreamSequential} {
		t.Run(string(mode), func(t *testing.T) {
			m, err := NewTrajectorySimulator(WithStreamMode(mode)).RunContext(ctx, stochasticConfig())
			assert.Nil(t, m)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestWithLogger_Nil(t *testing.T) {
	ts := NewTrajectorySimulator(WithLogger(nil))
	assert.IsType(t, NopLogger{}, ts.Logger)
}

func TestTrajectorySimulator_LumpSumOnlyAffectsLaterYears(t *testing.T) {
	for _, mode := range []domain.StreamMode{domain.StreamPerSimulation, domain.StreamSequential} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := stochasticConfig()
			cfg.LumpSums = map[int]float64{8: 75000}
			ts := NewTrajectorySimulator(WithStreamMode(mode))

			with, err := ts.Run(cfg)
			require.NoError(t, err)
			cfg.LumpSums = nil
			without, err := ts.Run(cfg)
			require.NoError(t, err)

			// Sequential streams shift for later simulations once draw counts
			// diverge, so only the first row is comparable in that mode.
			rows := cfg.NumSimulations
			if mode == domain.StreamSequential {
				rows = 1
			}
			for s := 0; s < rows; s++ {
				assert.Equal(t, without.Assets[s][:7], with.Assets[s][:7], "sim %d", s)
				assert.NotEqual(t, without.Assets[s][7], with.Assets[s][7], "sim %d", s)
			}
		})
	}
}

// countingSource counts the uniform draws taken from an underlying source.
type countingSource struct {
	RandomSource
	calls int
}

func (c *countingSource) Float64() float64 {
	c.calls++
	return c.RandomSource.Float64()
}

func TestTrajectorySimulator_DrawsPerYear(t *testing.T) {
	cfg := domain.SimulationConfig{
		Seed:                42,
		NumYears:            3,
		NumSimulations:      1,
		InitialAssets:       1000,
		ExpectedReturnMean:  5,
		ExpectedReturnSD:    10,
		ExpectedExpenseMean: 50000,
		ExpectedExpenseSD:   100,
	}

	tests := []struct {
		name     string
		lumpSums map[int]float64
		want     []int
	}{
		// Year 1 starts positive (return, expense, uniform); later years are negative.
		{"depleted after first year", nil, []int{5, 3, 3}},
		{"lump sum restores a positive balance", map[int]float64{3: 200000}, []int{5, 3, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := NewTrajectorySimulator()
			// totals[n] is the number of draws consumed by an n-year horizon.
			totals := make([]int, cfg.NumYears+1)
			for years := 1; years <= cfg.NumYears; years++ {
				c := cfg
				c.NumYears = years
				c.LumpSums = tt.lumpSums
				source := &countingSource{RandomSource: NewRandomSource(c.Seed)}
				ts.simulate(c, BuildIncomeSchedule(c), NewNormalSampler(source), domain.NewTrajectoryMatrices(1, years), 0)
				totals[years] = source.calls
			}

			got := make([]int, cfg.NumYears)
			for y := range got {
				got[y] = totals[y+1] - totals[y]
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrajectorySimulator_UniformFollowsExpenseDraws(t *testing.T) {
	base := domain.SimulationConfig{
		NumYears:                1,
		NumSimulations:          1,
		ExpectedReturnMean:      5,
		ExpectedReturnSD:        10,
		ExpectedExpenseMean:     1000,
		ExpectedExpenseSD:       100,
		UnexpectedExpenseChance: 0.6,
		UnexpectedExpenseAmount: 500,
	}

	tests := []struct {
		name      string
		initial   float64
		script    []float64
		wantCalls int
		wantHit   bool
	}{
		// cos(2*pi*0.25) = 0, so every normal draw lands on its mean.
		{"positive balance draws the return first", 10000, []float64{0.5, 0.25, 0.5, 0.25, 0.9}, 5, false},
		{"empty balance skips the return draw", 0, []float64{0.5, 0.25, 0.1}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.InitialAssets = tt.initial
			source := &scriptedSource{values: tt.script}
			m := domain.NewTrajectoryMatrices(1, 1)

			NewTrajectorySimulator().simulate(cfg, BuildIncomeSchedule(cfg), NewNormalSampler(source), m, 0)

			assert.Equal(t, tt.wantCalls, source.calls)
			assert.Equal(t, tt.wantHit, m.UnexpectedExpenses[0][0] != 0)
			wantExpenses := 1000.0
			if tt.wantHit {
				wantExpenses += 500
			}
			assert.InDelta(t, wantExpenses, m.Expenses[0][0], 1e-9)
		})
	}
}
