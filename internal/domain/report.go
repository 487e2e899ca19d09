package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Insight keys, in presentation order.
const (
	InsightMedianEndingAssets    = "Median investable assets left at the end"
	InsightDepletionPercentage   = "Percentage of simulations where assets were ever depleted"
	InsightMedianYearDepleted    = "Median year assets depleted"
	InsightEscapeVelocityPercent = "Percentage of simulations achieving escape velocity"
	InsightMedianFirstEscapeYear = "Median first year escape"
	NeverDepleted                = "Never"
)

// InsightKeys lists the insight keys in presentation order.
var InsightKeys = []string{
	InsightMedianEndingAssets,
	InsightDepletionPercentage,
	InsightMedianYearDepleted,
	InsightEscapeVelocityPercent,
	InsightMedianFirstEscapeYear,
}

// ResultRow is one line of the per-year results table (medians across simulations).
type ResultRow struct {
	Year             int             `json:"year" yaml:"year"`
	Assets           decimal.Decimal `json:"assets" yaml:"assets"`
	IncomeFromAssets decimal.Decimal `json:"income_from_assets" yaml:"income_from_assets"`
	Expenses         decimal.Decimal `json:"expenses" yaml:"expenses"`
	InvestmentTaxes  decimal.Decimal `json:"investment_taxes" yaml:"investment_taxes"`
	LumpSum          decimal.Decimal `json:"lump_sum" yaml:"lump_sum"`
}

// DistributionRow is a five-number summary plus mean for one year.
// Excluded counts non-finite samples left out of the summary.
type DistributionRow struct {
	Year     int     `json:"year" yaml:"year"`
	Min      float64 `json:"min" yaml:"min"`
	Q1       float64 `json:"q1" yaml:"q1"`
	Median   float64 `json:"median" yaml:"median"`
	Mean     float64 `json:"mean" yaml:"mean"`
	Q3       float64 `json:"q3" yaml:"q3"`
	Max      float64 `json:"max" yaml:"max"`
	Excluded int     `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// DepletionStats summarises when simulations fell to the depletion threshold.
type DepletionStats struct {
	Percentage float64 `json:"percentage" yaml:"percentage"`
	// MedianYear is 1-based and only meaningful when Depleted is true.
	MedianYear float64 `json:"median_year" yaml:"median_year"`
	Depleted   bool    `json:"depleted" yaml:"depleted"`
	// Years holds the 0-based depletion year per simulation, or the
	// never-depleted sentinel NumYears+1.
	Years []int `json:"years" yaml:"years"`
}

// EscapeVelocityStats summarises simulations whose asset and passive income
// outran expenses from some year to the end of the horizon.
type EscapeVelocityStats struct {
	Percentage      float64 `json:"percentage" yaml:"percentage"`
	MedianFirstYear float64 `json:"median_first_year" yaml:"median_first_year"`
	Count           int     `json:"count" yaml:"count"`
	FirstYears      []int   `json:"first_years" yaml:"first_years"`
}

// IncomeExpensePoint is one year of the income versus expenses series.
type IncomeExpensePoint struct {
	Year                  int     `json:"year" yaml:"year"`
	MedianNetAssetIncome  float64 `json:"median_net_asset_income" yaml:"median_net_asset_income"`
	MedianExpenses        float64 `json:"median_expenses" yaml:"median_expenses"`
	ActiveIncome          float64 `json:"active_income" yaml:"active_income"`
	PassiveIncome         float64 `json:"passive_income" yaml:"passive_income"`
	LumpSum               float64 `json:"lump_sum,omitempty" yaml:"lump_sum,omitempty"`
	UnexpectedExpenseHits int     `json:"unexpected_expense_hits" yaml:"unexpected_expense_hits"`
}

// Insight is a single key/value line of the key insights table.
type Insight struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Insights is the ordered key insights table.
type Insights []Insight

// Get returns the value for key.
func (in Insights) Get(key string) (string, bool) {
	for _, i := range in {
		if i.Key == key {
			return i.Value, true
		}
	}
	return "", false
}

// Map returns the insights as a map, dropping order.
func (in Insights) Map() map[string]string {
	m := make(map[string]string, len(in))
	for _, i := range in {
		m[i.Key] = i.Value
	}
	return m
}

// StreamMode selects how random draws are allocated to simulations.
type StreamMode string

const (
	// StreamPerSimulation gives each simulation its own seeded substream.
	StreamPerSimulation StreamMode = "per-simulation"
	// StreamSequential consumes one shared stream in simulation order.
	StreamSequential StreamMode = "sequential"
)

// RunMetadata describes how a report was produced.
type RunMetadata struct {
	Seed        int64         `json:"seed" yaml:"seed"`
	StreamMode  StreamMode    `json:"stream_mode" yaml:"stream_mode"`
	Workers     int           `json:"workers" yaml:"workers"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// SimulationReport bundles everything a run produces for output collaborators.
type SimulationReport struct {
	Config               SimulationConfig     `json:"config" yaml:"config"`
	Schedule             IncomeSchedule       `json:"schedule" yaml:"schedule"`
	Trajectories         *TrajectoryMatrices  `json:"-" yaml:"-"`
	Results              []ResultRow          `json:"results" yaml:"results"`
	AssetDistribution    []DistributionRow    `json:"asset_distribution" yaml:"asset_distribution"`
	CoverageDistribution []DistributionRow    `json:"coverage_distribution" yaml:"coverage_distribution"`
	IncomeExpenses       []IncomeExpensePoint `json:"income_expenses" yaml:"income_expenses"`
	MedianEndingAssets   float64              `json:"median_ending_assets" yaml:"median_ending_assets"`
	Depletion            DepletionStats       `json:"depletion" yaml:"depletion"`
	EscapeVelocity       EscapeVelocityStats  `json:"escape_velocity" yaml:"escape_velocity"`
	Insights             Insights             `json:"insights" yaml:"insights"`
	Metadata             RunMetadata          `json:"metadata" yaml:"metadata"`
}
