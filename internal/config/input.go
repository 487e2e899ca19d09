package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rpgo/escape-velocity/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// requiredKeys must be present in every configuration document. Missing
// scalars would otherwise silently decode as zero.
var requiredKeys = []string{
	"simulation.years",
	"simulation.simulations",
	"simulation.depletion_threshold",
	"portfolio.holdings",
	"expenses.mean",
	"expenses.std_dev",
	"expenses.inflation_rate",
	"taxes.rate",
}

// InputParser handles parsing of input configuration files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads configuration from a YAML or JSON file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates a configuration document.
func (ip *InputParser) Parse(data []byte) (*domain.Configuration, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", &domain.ConfigError{Field: "document", Reason: err.Error()})
	}
	for _, key := range requiredKeys {
		if !hasPath(&root, key) {
			return nil, fmt.Errorf("configuration validation failed: %w", domain.NewConfigError(key, "is required"))
		}
	}

	var config domain.Configuration
	if err := root.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", &domain.ConfigError{Field: "document", Reason: err.Error()})
	}

	// Validate the configuration
	if err := ip.ValidateConfiguration(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// hasPath reports whether a dotted mapping path exists in the document.
func hasPath(root *yaml.Node, path string) bool {
	node := root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return false
		}
		node = node.Content[0]
	}
	for _, part := range strings.Split(path, ".") {
		if node.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == part {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil || (next.Kind == yaml.ScalarNode && next.Tag == "!!null") {
			return false
		}
		node = next
	}
	return true
}

// ValidateConfiguration validates the loaded configuration
func (ip *InputParser) ValidateConfiguration(config *domain.Configuration) error {
	if err := ip.validateSimulation(&config.Simulation); err != nil {
		return fmt.Errorf("simulation settings validation failed: %w", err)
	}
	if err := ip.validatePortfolio(&config.Portfolio); err != nil {
		return fmt.Errorf("portfolio validation failed: %w", err)
	}
	if err := ip.validateExpenses(&config.Expenses); err != nil {
		return fmt.Errorf("expense assumptions validation failed: %w", err)
	}
	if err := ip.validateIncome(&config.Income); err != nil {
		return fmt.Errorf("income assumptions validation failed: %w", err)
	}
	if config.Taxes.Rate.GreaterThanOrEqual(decimal.NewFromInt(1)) || config.Taxes.Rate.IsNegative() {
		return fmt.Errorf("tax assumptions validation failed: %w",
			&domain.DomainError{Field: "taxes.rate", Reason: fmt.Sprintf("must be in [0, 1), got %s", config.Taxes.Rate)})
	}

	seen := make(map[int]bool, len(config.LumpSums))
	for i, ls := range config.LumpSums {
		if ls.Year < 1 || ls.Year > config.Simulation.Years {
			return fmt.Errorf("lump sum %d validation failed: %w", i,
				domain.NewConfigError("lump_sums.year", "year %d outside [1, %d]", ls.Year, config.Simulation.Years))
		}
		if seen[ls.Year] {
			return fmt.Errorf("lump sum %d validation failed: %w", i,
				domain.NewConfigError("lump_sums.year", "duplicate year %d", ls.Year))
		}
		seen[ls.Year] = true
	}

	return nil
}

// maxYears caps the horizon accepted from configuration files.
const maxYears = 200

// validateSimulation validates run size and stream settings
func (ip *InputParser) validateSimulation(s *domain.SimulationSettings) error {
	if s.Years <= 0 || s.Years > maxYears {
		return domain.NewConfigError("simulation.years", "must be between 1 and %d, got %d", maxYears, s.Years)
	}
	if s.Simulations <= 0 {
		return domain.NewConfigError("simulation.simulations", "must be positive, got %d", s.Simulations)
	}
	if s.Workers < 0 {
		return domain.NewConfigError("simulation.workers", "cannot be negative, got %d", s.Workers)
	}
	switch s.StreamMode {
	case "", domain.StreamPerSimulation, domain.StreamSequential:
	default:
		return domain.NewConfigError("simulation.stream_mode", "must be %q or %q, got %q",
			domain.StreamPerSimulation, domain.StreamSequential, s.StreamMode)
	}
	return nil
}

// validatePortfolio validates the holdings list
func (ip *InputParser) validatePortfolio(p *domain.Portfolio) error {
	if len(p.Holdings) == 0 {
		return domain.NewConfigError("portfolio.holdings", "at least one holding is required")
	}
	for i, h := range p.Holdings {
		if h.Name == "" {
			return domain.NewConfigError("portfolio.holdings", "holding %d has no name", i)
		}
		if h.Value.IsNegative() {
			return domain.NewConfigError("portfolio.holdings", "holding %q value cannot be negative", h.Name)
		}
		if h.ExpectedReturnSD.IsNegative() {
			return domain.NewConfigError("portfolio.holdings", "holding %q return SD cannot be negative", h.Name)
		}
		if h.ExpectedReturnMean.LessThan(decimal.NewFromInt(-100)) {
			return domain.NewConfigError("portfolio.holdings", "holding %q return mean cannot be below -100%%", h.Name)
		}
	}
	return nil
}

// validateExpenses validates spending assumptions
func (ip *InputParser) validateExpenses(e *domain.ExpenseAssumptions) error {
	if e.StdDev.IsNegative() {
		return domain.NewConfigError("expenses.std_dev", "cannot be negative")
	}
	if e.InflationRate.LessThan(decimal.NewFromFloat(-0.10)) {
		return domain.NewConfigError("expenses.inflation_rate", "cannot be less than -10%% (extreme deflation)")
	}
	if e.UnexpectedExpenseChance.IsNegative() || e.UnexpectedExpenseChance.GreaterThan(decimal.NewFromInt(1)) {
		return domain.NewConfigError("expenses.unexpected_expense_chance", "must be between 0 and 1")
	}
	return nil
}

// validateIncome validates income assumptions
func (ip *InputParser) validateIncome(in *domain.IncomeAssumptions) error {
	if in.YearsToWork < 0 {
		return domain.NewConfigError("income.years_to_work", "cannot be negative")
	}
	if in.ActiveGrowthRate.LessThan(decimal.NewFromInt(-1)) {
		return domain.NewConfigError("income.active_growth_rate", "cannot be less than -100%%")
	}
	if in.PassiveGrowthRate.LessThan(decimal.NewFromInt(-1)) {
		return domain.NewConfigError("income.passive_growth_rate", "cannot be less than -100%%")
	}
	return nil
}

// ToSimulationConfig converts a validated configuration into the engine input.
// Initial assets are the summed holding values and the expected return is
// value-weighted across holdings. A missing seed is filled from seedFunc.
func (ip *InputParser) ToSimulationConfig(config *domain.Configuration) (domain.SimulationConfig, error) {
	seed := seedFunc()
	if config.Simulation.Seed != nil {
		seed = *config.Simulation.Seed
	}

	meanReturn, sdReturn := config.Portfolio.WeightedReturn()

	lumpSums := make(map[int]float64, len(config.LumpSums))
	for _, ls := range config.LumpSums {
		if _, dup := lumpSums[ls.Year]; dup {
			return domain.SimulationConfig{}, domain.NewConfigError("lump_sums.year", "duplicate year %d", ls.Year)
		}
		lumpSums[ls.Year] = ls.Amount.InexactFloat64()
	}

	cfg := domain.SimulationConfig{
		Seed:                    seed,
		NumYears:                config.Simulation.Years,
		NumSimulations:          config.Simulation.Simulations,
		TaxRate:                 config.Taxes.Rate.InexactFloat64(),
		InflationRate:           config.Expenses.InflationRate.InexactFloat64(),
		DepletionThreshold:      config.Simulation.DepletionThreshold.InexactFloat64(),
		InitialAssets:           config.Portfolio.TotalValue().InexactFloat64(),
		ExpectedReturnMean:      meanReturn.InexactFloat64(),
		ExpectedReturnSD:        sdReturn.InexactFloat64(),
		ExpectedExpenseMean:     config.Expenses.Mean.InexactFloat64(),
		ExpectedExpenseSD:       config.Expenses.StdDev.InexactFloat64(),
		UnexpectedExpenseChance: config.Expenses.UnexpectedExpenseChance.InexactFloat64(),
		UnexpectedExpenseAmount: config.Expenses.UnexpectedExpenseAmount.InexactFloat64(),
		PassiveIncome:           config.Income.Passive.InexactFloat64(),
		PassiveIncomeGrowthRate: config.Income.PassiveGrowthRate.InexactFloat64(),
		ActiveIncome:            config.Income.Active.InexactFloat64(),
		ActiveIncomeGrowthRate:  config.Income.ActiveGrowthRate.InexactFloat64(),
		YearsToWork:             config.Income.YearsToWork,
		LumpSums:                lumpSums,
	}
	if err := cfg.Validate(); err != nil {
		return domain.SimulationConfig{}, err
	}
	return cfg, nil
}

// SaveConfiguration writes config as YAML to filename.
func SaveConfiguration(config *domain.Configuration, filename string) error {
	b, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}

// CreateExampleConfiguration creates an example configuration file
func (ip *InputParser) CreateExampleConfiguration() *domain.Configuration {
	seed := int64(42)
	return &domain.Configuration{
		Simulation: domain.SimulationSettings{
			Seed:               &seed,
			Years:              30,
			Simulations:        1000,
			StreamMode:         domain.StreamPerSimulation,
			DepletionThreshold: decimal.NewFromInt(50000),
		},
		Portfolio: domain.Portfolio{
			Holdings: []domain.Holding{
				{Name: "Total Stock Market Index", Value: decimal.NewFromInt(600000), ExpectedReturnMean: decimal.NewFromFloat(8.5), ExpectedReturnSD: decimal.NewFromInt(17)},
				{Name: "Total Bond Market Index", Value: decimal.NewFromInt(300000), ExpectedReturnMean: decimal.NewFromFloat(4.0), ExpectedReturnSD: decimal.NewFromInt(6)},
				{Name: "High-Yield Savings", Value: decimal.NewFromInt(100000), ExpectedReturnMean: decimal.NewFromFloat(3.5), ExpectedReturnSD: decimal.NewFromFloat(0.5)},
			},
		},
		Expenses: domain.ExpenseAssumptions{
			Mean:                    decimal.NewFromInt(60000),
			StdDev:                  decimal.NewFromInt(5000),
			InflationRate:           decimal.NewFromFloat(0.03),
			UnexpectedExpenseChance: decimal.NewFromFloat(0.1),
			UnexpectedExpenseAmount: decimal.NewFromInt(15000),
		},
		Income: domain.IncomeAssumptions{
			Active:            decimal.NewFromInt(40000),
			ActiveGrowthRate:  decimal.NewFromFloat(0.02),
			YearsToWork:       5,
			Passive:           decimal.NewFromInt(12000),
			PassiveGrowthRate: decimal.NewFromFloat(0.02),
		},
		Taxes: domain.TaxAssumptions{
			Rate: decimal.NewFromFloat(0.15),
		},
		LumpSums: []domain.LumpSum{
			{Year: 3, Amount: decimal.NewFromInt(-35000), Description: "Vehicle replacement"},
			{Year: 12, Amount: decimal.NewFromInt(80000), Description: "Inheritance"},
		},
	}
}
