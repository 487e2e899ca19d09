package domain

import (
	"math"
	"sort"
)

// SimulationConfig is the immutable input of a single forecasting run.
// Rates are fractions (0.03 = 3%) except the expected return mean and
// standard deviation, which are percentages as entered by the user.
type SimulationConfig struct {
	Seed           int64 `json:"seed" yaml:"seed"`
	NumYears       int   `json:"num_years" yaml:"num_years"`
	NumSimulations int   `json:"num_simulations" yaml:"num_simulations"`

	TaxRate            float64 `json:"tax_rate" yaml:"tax_rate"`
	InflationRate      float64 `json:"inflation_rate" yaml:"inflation_rate"`
	DepletionThreshold float64 `json:"depletion_threshold" yaml:"depletion_threshold"`

	InitialAssets      float64 `json:"initial_assets" yaml:"initial_assets"`
	ExpectedReturnMean float64 `json:"expected_return_mean" yaml:"expected_return_mean"`
	ExpectedReturnSD   float64 `json:"expected_return_sd" yaml:"expected_return_sd"`

	ExpectedExpenseMean     float64 `json:"expected_expense_mean" yaml:"expected_expense_mean"`
	ExpectedExpenseSD       float64 `json:"expected_expense_sd" yaml:"expected_expense_sd"`
	UnexpectedExpenseChance float64 `json:"unexpected_expense_chance" yaml:"unexpected_expense_chance"`
	UnexpectedExpenseAmount float64 `json:"unexpected_expense_amount" yaml:"unexpected_expense_amount"`

	PassiveIncome           float64 `json:"passive_income" yaml:"passive_income"`
	PassiveIncomeGrowthRate float64 `json:"passive_income_growth_rate" yaml:"passive_income_growth_rate"`
	ActiveIncome            float64 `json:"active_income" yaml:"active_income"`
	ActiveIncomeGrowthRate  float64 `json:"active_income_growth_rate" yaml:"active_income_growth_rate"`
	YearsToWork             int     `json:"years_to_work" yaml:"years_to_work"`

	// LumpSums maps a 1-based year to a signed amount (positive = inflow).
	LumpSums map[int]float64 `json:"lump_sums,omitempty" yaml:"lump_sums,omitempty"`
}

// LumpSumFor returns the lump sum configured for a 1-based year.
func (c SimulationConfig) LumpSumFor(year int) (float64, bool) {
	amount, ok := c.LumpSums[year]
	return amount, ok
}

// LumpSumYears returns the configured lump-sum years in ascending order.
func (c SimulationConfig) LumpSumYears() []int {
	years := make([]int, 0, len(c.LumpSums))
	for y := range c.LumpSums {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Validate checks the configuration once, before any simulation runs.
// The first problem found is returned as a *ConfigError, *DomainError or
// *NumericError.
func (c SimulationConfig) Validate() error {
	if c.NumYears <= 0 {
		return newConfigError("num_years", "must be positive, got %d", c.NumYears)
	}
	if c.NumSimulations <= 0 {
		return newConfigError("num_simulations", "must be positive, got %d", c.NumSimulations)
	}
	if c.YearsToWork < 0 {
		return newConfigError("years_to_work", "cannot be negative, got %d", c.YearsToWork)
	}

	scalars := []struct {
		name  string
		value float64
	}{
		{"tax_rate", c.TaxRate},
		{"inflation_rate", c.InflationRate},
		{"depletion_threshold", c.DepletionThreshold},
		{"initial_assets", c.InitialAssets},
		{"expected_return_mean", c.ExpectedReturnMean},
		{"expected_return_sd", c.ExpectedReturnSD},
		{"expected_expense_mean", c.ExpectedExpenseMean},
		{"expected_expense_sd", c.ExpectedExpenseSD},
		{"unexpected_expense_chance", c.UnexpectedExpenseChance},
		{"unexpected_expense_amount", c.UnexpectedExpenseAmount},
		{"passive_income", c.PassiveIncome},
		{"passive_income_growth_rate", c.PassiveIncomeGrowthRate},
		{"active_income", c.ActiveIncome},
		{"active_income_growth_rate", c.ActiveIncomeGrowthRate},
	}
	for _, s := range scalars {
		if math.IsNaN(s.value) || math.IsInf(s.value, 0) {
			return NewNumericError(s.name, "must be finite, got %v", s.value)
		}
	}

	if c.TaxRate >= 1 {
		return newDomainError("tax_rate", "must be below 1, got %v", c.TaxRate)
	}
	if c.TaxRate < 0 {
		return newDomainError("tax_rate", "cannot be negative, got %v", c.TaxRate)
	}
	if c.UnexpectedExpenseChance < 0 || c.UnexpectedExpenseChance > 1 {
		return newConfigError("unexpected_expense_chance", "must be between 0 and 1, got %v", c.UnexpectedExpenseChance)
	}
	if c.ExpectedReturnSD < 0 {
		return newConfigError("expected_return_sd", "cannot be negative, got %v", c.ExpectedReturnSD)
	}
	if c.ExpectedExpenseSD < 0 {
		return newConfigError("expected_expense_sd", "cannot be negative, got %v", c.ExpectedExpenseSD)
	}

	for _, year := range c.LumpSumYears() {
		amount := c.LumpSums[year]
		if year < 1 || year > c.NumYears {
			return newConfigError("lump_sums", "year %d outside [1, %d]", year, c.NumYears)
		}
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			return NewNumericError("lump_sums", "amount for year %d must be finite, got %v", year, amount)
		}
	}

	return nil
}
