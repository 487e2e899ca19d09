package calculation

import (
	"fmt"

	"github.com/rpgo/escape-velocity/internal/domain"
	money "github.com/rpgo/escape-velocity/pkg/decimal"
	"github.com/shopspring/decimal"
)

// ResultsTable returns the per-year medians of assets, asset income,
// expenses and investment taxes, alongside the configured lump sum.
func ResultsTable(m *domain.TrajectoryMatrices, cfg domain.SimulationConfig) ([]domain.ResultRow, error) {
	rows := make([]domain.ResultRow, m.NumYears())
	for y := range rows {
		medians := make([]float64, 0, 4)
		for _, matrix := range [][][]float64{m.Assets, m.ReturnDollars, m.Expenses, m.TaxesPaid} {
			column := domain.Column(matrix, y)
			if err := requireFinite(fmt.Sprintf("results year %d", y+1), column); err != nil {
				return nil, err
			}
			med, err := Median(column)
			if err != nil {
				return nil, fmt.Errorf("year %d: %w", y+1, err)
			}
			if err := checkFinite(fmt.Sprintf("results year %d", y+1), med); err != nil {
				return nil, err
			}
			medians = append(medians, med)
		}
		lump, _ := cfg.LumpSumFor(y + 1)
		rows[y] = domain.ResultRow{
			Year:             y + 1,
			Assets:           decimal.NewFromFloat(medians[0]),
			IncomeFromAssets: decimal.NewFromFloat(medians[1]),
			Expenses:         decimal.NewFromFloat(medians[2]),
			InvestmentTaxes:  decimal.NewFromFloat(medians[3]),
			LumpSum:          decimal.NewFromFloat(lump),
		}
	}
	return rows, nil
}

// AssetDistribution summarises assets per year. Row 0 is the degenerate
// pre-simulation year where every statistic equals the initial assets.
// Unlike coverage, a non-finite balance fails the distribution.
func AssetDistribution(m *domain.TrajectoryMatrices, cfg domain.SimulationConfig) ([]domain.DistributionRow, error) {
	rows := make([]domain.DistributionRow, 0, m.NumYears()+1)
	initial := cfg.InitialAssets
	rows = append(rows, domain.DistributionRow{
		Year: 0, Min: initial, Q1: initial, Median: initial, Mean: initial, Q3: initial, Max: initial,
	})
	for y := 0; y < m.NumYears(); y++ {
		summary, err := SummarizeStrict(fmt.Sprintf("assets year %d", y+1), domain.Column(m.Assets, y))
		if err != nil {
			return nil, fmt.Errorf("asset distribution year %d: %w", y+1, err)
		}
		rows = append(rows, summary.DistributionRow(y+1, 0))
	}
	return rows, nil
}

// CoverageDistribution summarises, per year, the percentage of expenses
// covered by asset returns plus passive income. Ratios over zero expenses are
// not finite and are counted in DistributionRow.Excluded instead of sorted.
func CoverageDistribution(m *domain.TrajectoryMatrices, schedule domain.IncomeSchedule) ([]domain.DistributionRow, error) {
	rows := make([]domain.DistributionRow, 0, m.NumYears())
	for y := 0; y < m.NumYears(); y++ {
		ratios := make([]float64, m.NumSimulations())
		for s := range ratios {
			ratios[s] = (m.ReturnDollars[s][y] + schedule.PassiveIncomeByYear[y]) / m.Expenses[s][y] * 100
		}
		summary, excluded, err := Summarize(ratios)
		if err != nil {
			return nil, fmt.Errorf("coverage year %d: %w", y+1, err)
		}
		rows = append(rows, summary.DistributionRow(y+1, excluded))
	}
	return rows, nil
}

// IncomeExpenseSeries returns median asset income and expenses per year next
// to the deterministic income streams.
func IncomeExpenseSeries(m *domain.TrajectoryMatrices, schedule domain.IncomeSchedule, cfg domain.SimulationConfig) ([]domain.IncomeExpensePoint, error) {
	hits := m.UnexpectedExpenseHits()
	points := make([]domain.IncomeExpensePoint, m.NumYears())
	for y := range points {
		field := fmt.Sprintf("income series year %d", y+1)
		returns := domain.Column(m.ReturnDollars, y)
		costs := domain.Column(m.Expenses, y)
		if err := requireFinite(field, returns); err != nil {
			return nil, err
		}
		if err := requireFinite(field, costs); err != nil {
			return nil, err
		}
		income, err := Median(returns)
		if err != nil {
			return nil, err
		}
		expenses, err := Median(costs)
		if err != nil {
			return nil, err
		}
		lump, _ := cfg.LumpSumFor(y + 1)
		points[y] = domain.IncomeExpensePoint{
			Year:                  y + 1,
			MedianNetAssetIncome:  income,
			MedianExpenses:        expenses,
			ActiveIncome:          schedule.ActiveIncomeByYear[y],
			PassiveIncome:         schedule.PassiveIncomeByYear[y],
			LumpSum:               lump,
			UnexpectedExpenseHits: hits[y],
		}
	}
	return points, nil
}

// MedianEndingAssets returns the median balance in the final year.
func MedianEndingAssets(m *domain.TrajectoryMatrices) (float64, error) {
	if m.NumYears() == 0 {
		return 0, domain.NewNumericError("ending_assets", "no simulated years")
	}
	med, err := Median(domain.Column(m.Assets, m.NumYears()-1))
	if err != nil {
		return 0, err
	}
	return med, checkFinite("ending_assets", med)
}

// DepletionYear returns the first 0-based year whose balance is at or below
// threshold, or len(row)+1 when the row never depletes.
func DepletionYear(row []float64, threshold float64) int {
	for y, balance := range row {
		if balance <= threshold {
			return y
		}
	}
	return len(row) + 1
}

// Depletion computes the share of simulations that ever hit the depletion
// threshold and the median (1-based) year in which they did.
func Depletion(m *domain.TrajectoryMatrices, cfg domain.SimulationConfig) (domain.DepletionStats, error) {
	sims := m.NumSimulations()
	if sims == 0 {
		return domain.DepletionStats{}, domain.NewNumericError("depletion", "no simulations")
	}
	sentinel := m.NumYears() + 1
	stats := domain.DepletionStats{Years: make([]int, sims)}

	var depleted []int
	for s, row := range m.Assets {
		year := DepletionYear(row, cfg.DepletionThreshold)
		stats.Years[s] = year
		if year != sentinel {
			depleted = append(depleted, year+1)
		}
	}

	stats.Percentage = float64(len(depleted)) / float64(sims) * 100
	if len(depleted) > 0 {
		med, err := medianInts(depleted)
		if err != nil {
			return domain.DepletionStats{}, err
		}
		stats.MedianYear = med
		stats.Depleted = true
	}
	return stats, nil
}

// EscapeVelocity finds, per simulation, the first year where asset returns
// plus passive income exceed expenses. The simulation reaches escape velocity
// when the summed income from that year to the horizon strictly exceeds the
// summed expenses over the same years.
func EscapeVelocity(m *domain.TrajectoryMatrices, schedule domain.IncomeSchedule) (domain.EscapeVelocityStats, error) {
	sims := m.NumSimulations()
	if sims == 0 {
		return domain.EscapeVelocityStats{}, domain.NewNumericError("escape_velocity", "no simulations")
	}
	var stats domain.EscapeVelocityStats
	for s := 0; s < sims; s++ {
		candidate, ok := firstCoveredYear(m.ReturnDollars[s], m.Expenses[s], schedule.PassiveIncomeByYear)
		if !ok {
			continue
		}
		var incomeSum, expenseSum float64
		for y := candidate; y < m.NumYears(); y++ {
			incomeSum += m.ReturnDollars[s][y] + schedule.PassiveIncomeByYear[y]
			expenseSum += m.Expenses[s][y]
		}
		if incomeSum > expenseSum {
			stats.FirstYears = append(stats.FirstYears, candidate)
		}
	}

	stats.Count = len(stats.FirstYears)
	stats.Percentage = float64(stats.Count) * 100 / float64(sims)
	if stats.Count > 0 {
		med, err := medianInts(stats.FirstYears)
		if err != nil {
			return domain.EscapeVelocityStats{}, err
		}
		stats.MedianFirstYear = med
	}
	return stats, nil
}

func firstCoveredYear(returns, expenses, passive []float64) (int, bool) {
	for y := range returns {
		if returns[y]+passive[y] > expenses[y] {
			return y, true
		}
	}
	return 0, false
}

// BuildInsights formats the key insights table in presentation order.
func BuildInsights(medianEnding float64, depletion domain.DepletionStats, escape domain.EscapeVelocityStats) domain.Insights {
	depletedYear := domain.NeverDepleted
	if depletion.Depleted {
		depletedYear = fmt.Sprintf("Year %.1f", depletion.MedianYear)
	}
	return domain.Insights{
		{Key: domain.InsightMedianEndingAssets, Value: money.NewMoney(medianEnding).FormatWhole()},
		{Key: domain.InsightDepletionPercentage, Value: fmt.Sprintf("%.2f%%", depletion.Percentage)},
		{Key: domain.InsightMedianYearDepleted, Value: depletedYear},
		{Key: domain.InsightEscapeVelocityPercent, Value: fmt.Sprintf("%.2f%%", escape.Percentage)},
		{Key: domain.InsightMedianFirstEscapeYear, Value: fmt.Sprintf("%.0f", escape.MedianFirstYear)},
	}
}

// Aggregator reduces trajectory matrices into a SimulationReport.
type Aggregator struct {
	Logger Logger
}

// NewAggregator creates an aggregator with a no-op logger.
func NewAggregator() *Aggregator {
	return &Aggregator{Logger: NopLogger{}}
}

// Aggregate runs every reduction. Any statistic that would report NaN or Inf
// fails the whole aggregation with a NumericError.
func (a *Aggregator) Aggregate(cfg domain.SimulationConfig, schedule domain.IncomeSchedule, m *domain.TrajectoryMatrices) (*domain.SimulationReport, error) {
	if m == nil || m.NumSimulations() != cfg.NumSimulations || m.NumYears() != cfg.NumYears {
		return nil, domain.NewConfigError("trajectories", "matrix shape does not match %d simulations x %d years", cfg.NumSimulations, cfg.NumYears)
	}
	if schedule.Len() != cfg.NumYears {
		return nil, domain.NewConfigError("income_schedule", "schedule covers %d years, want %d", schedule.Len(), cfg.NumYears)
	}

	results, err := ResultsTable(m, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build results table: %w", err)
	}
	assetDist, err := AssetDistribution(m, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise assets: %w", err)
	}
	coverage, err := CoverageDistribution(m, schedule)
	if err != nil {
		// Optional statistic: omitted when a year has no finite ratio.
		a.Logger.Warnf("coverage distribution unavailable: %v", err)
		coverage = nil
	}
	series, err := IncomeExpenseSeries(m, schedule, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build income series: %w", err)
	}
	medianEnding, err := MedianEndingAssets(m)
	if err != nil {
		return nil, fmt.Errorf("failed to compute ending assets: %w", err)
	}
	depletion, err := Depletion(m, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to compute depletion: %w", err)
	}
	escape, err := EscapeVelocity(m, schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to compute escape velocity: %w", err)
	}

	a.Logger.Debugf("aggregated %d simulations: depleted %.2f%%, escape velocity %.2f%%",
		m.NumSimulations(), depletion.Percentage, escape.Percentage)

	return &domain.SimulationReport{
		Config:               cfg,
		Schedule:             schedule,
		Trajectories:         m,
		Results:              results,
		AssetDistribution:    assetDist,
		CoverageDistribution: coverage,
		IncomeExpenses:       series,
		MedianEndingAssets:   medianEnding,
		Depletion:            depletion,
		EscapeVelocity:       escape,
		Insights:             BuildInsights(medianEnding, depletion, escape),
	}, nil
}
