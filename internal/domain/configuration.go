package domain

import (
	"github.com/shopspring/decimal"
)

// Configuration is the YAML document describing a forecast. It is converted
// into a SimulationConfig by the config package.
type Configuration struct {
	Simulation SimulationSettings `yaml:"simulation" json:"simulation"`
	Portfolio  Portfolio          `yaml:"portfolio" json:"portfolio"`
	Expenses   ExpenseAssumptions `yaml:"expenses" json:"expenses"`
	Income     IncomeAssumptions  `yaml:"income" json:"income"`
	Taxes      TaxAssumptions     `yaml:"taxes" json:"taxes"`
	LumpSums   []LumpSum          `yaml:"lump_sums,omitempty" json:"lump_sums,omitempty"`
}

// SimulationSettings controls run size and randomness.
type SimulationSettings struct {
	// Seed is optional; a fresh seed is generated when omitted.
	Seed               *int64          `yaml:"seed,omitempty" json:"seed,omitempty"`
	Years              int             `yaml:"years" json:"years"`
	Simulations        int             `yaml:"simulations" json:"simulations"`
	StreamMode         StreamMode      `yaml:"stream_mode,omitempty" json:"stream_mode,omitempty"`
	Workers            int             `yaml:"workers,omitempty" json:"workers,omitempty"`
	DepletionThreshold decimal.Decimal `yaml:"depletion_threshold" json:"depletion_threshold"`
}

// Portfolio lists the investable holdings. Initial assets are the holding
// values summed; expected return mean and SD are value-weighted.
type Portfolio struct {
	Holdings []Holding `yaml:"holdings" json:"holdings"`
}

// Holding is a single investable asset.
type Holding struct {
	Name               string          `yaml:"name" json:"name"`
	Value              decimal.Decimal `yaml:"value" json:"value"`
	ExpectedReturnMean decimal.Decimal `yaml:"expected_return_mean" json:"expected_return_mean"` // percent
	ExpectedReturnSD   decimal.Decimal `yaml:"expected_return_sd" json:"expected_return_sd"`     // percent
}

// ExpenseAssumptions describes yearly spending.
type ExpenseAssumptions struct {
	Mean                    decimal.Decimal `yaml:"mean" json:"mean"`
	StdDev                  decimal.Decimal `yaml:"std_dev" json:"std_dev"`
	InflationRate           decimal.Decimal `yaml:"inflation_rate" json:"inflation_rate"`
	UnexpectedExpenseChance decimal.Decimal `yaml:"unexpected_expense_chance" json:"unexpected_expense_chance"`
	UnexpectedExpenseAmount decimal.Decimal `yaml:"unexpected_expense_amount" json:"unexpected_expense_amount"`
}

// IncomeAssumptions describes active (employment) and passive income.
type IncomeAssumptions struct {
	Active            decimal.Decimal `yaml:"active" json:"active"`
	ActiveGrowthRate  decimal.Decimal `yaml:"active_growth_rate" json:"active_growth_rate"`
	YearsToWork       int             `yaml:"years_to_work" json:"years_to_work"`
	Passive           decimal.Decimal `yaml:"passive" json:"passive"`
	PassiveGrowthRate decimal.Decimal `yaml:"passive_growth_rate" json:"passive_growth_rate"`
}

// TaxAssumptions holds the flat rate applied to assets sold to cover a shortfall.
type TaxAssumptions struct {
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

// LumpSum is a one-time signed cash adjustment in a 1-based year.
type LumpSum struct {
	Year        int             `yaml:"year" json:"year"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
}

// TotalValue returns the summed value of all holdings.
func (p Portfolio) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, h := range p.Holdings {
		total = total.Add(h.Value)
	}
	return total
}

// WeightedReturn returns the value-weighted expected return mean and SD, in
// percent. An empty or zero-valued portfolio yields zeros.
func (p Portfolio) WeightedReturn() (mean, sd decimal.Decimal) {
	total := p.TotalValue()
	if total.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	for _, h := range p.Holdings {
		weight := h.Value.Div(total)
		mean = mean.Add(h.ExpectedReturnMean.Mul(weight))
		sd = sd.Add(h.ExpectedReturnSD.Mul(weight))
	}
	return mean, sd
}
