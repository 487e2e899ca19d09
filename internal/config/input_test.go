package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpgo/escape-velocity/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `simulation:
  seed: 42
  years: 3
  simulations: 1000
  depletion_threshold: 0
portfolio:
  holdings:
    - name: "Index Fund"
      value: 75000
      expected_return_mean: 8
      expected_return_sd: 0
    - name: "Bonds"
      value: 25000
      expected_return_mean: 4
      expected_return_sd: 0
expenses:
  mean: 0
  std_dev: 0
  inflation_rate: 0
  unexpected_expense_chance: 0
  unexpected_expense_amount: 0
income:
  active: 0
  years_to_work: 0
  passive: 0
taxes:
  rate: 0
lump_sums:
  - year: 2
    amount: -5000
    description: "Roof"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser)
}

func TestLoadFromFile_Success(t *testing.T) {
	parser := NewInputParser()
	config, err := parser.LoadFromFile(writeTemp(t, validYAML))

	require.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, 3, config.Simulation.Years)
	assert.Equal(t, 1000, config.Simulation.Simulations)
	require.NotNil(t, config.Simulation.Seed)
	assert.Equal(t, int64(42), *config.Simulation.Seed)
	assert.Len(t, config.Portfolio.Holdings, 2)
	assert.True(t, config.Portfolio.Holdings[0].Value.Equal(decimal.NewFromInt(75000)))
	assert.Len(t, config.LumpSums, 1)
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	parser := NewInputParser()
	config, err := parser.LoadFromFile("nonexistent_file.yaml")

	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	testConfig := `
simulation:
	years: 3
		simulations: "many"
`
	parser := NewInputParser()
	config, err := parser.LoadFromFile(writeTemp(t, testConfig))

	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestParse_NonNumericScalar(t *testing.T) {
	doc := replaceLine(validYAML, "  mean: 0", "  mean: lots")
	_, err := NewInputParser().Parse([]byte(doc))

	require.Error(t, err)
	var cfgErr *domain.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestParse_MissingRequiredScalar(t *testing.T) {
	doc := replaceLine(validYAML, "  rate: 0", "")
	_, err := NewInputParser().Parse([]byte(doc))

	require.Error(t, err)
	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "taxes.rate", cfgErr.Field)
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *domain.Configuration)
		wantErr error
	}{
		{"valid example", func(c *domain.Configuration) {}, nil},
		{"zero years", func(c *domain.Configuration) { c.Simulation.Years = 0 }, domain.ErrConfig},
		{"years above limit", func(c *domain.Configuration) { c.Simulation.Years = 201 }, domain.ErrConfig},
		{"years at limit", func(c *domain.Configuration) { c.Simulation.Years = 200 }, nil},
		{"zero simulations", func(c *domain.Configuration) { c.Simulation.Simulations = 0 }, domain.ErrConfig},
		{"negative workers", func(c *domain.Configuration) { c.Simulation.Workers = -1 }, domain.ErrConfig},
		{"unknown stream mode", func(c *domain.Configuration) { c.Simulation.StreamMode = "shuffled" }, domain.ErrConfig},
		{"no holdings", func(c *domain.Configuration) { c.Portfolio.Holdings = nil }, domain.ErrConfig},
		{"negative holding", func(c *domain.Configuration) { c.Portfolio.Holdings[0].Value = decimal.NewFromInt(-1) }, domain.ErrConfig},
		{"chance above one", func(c *domain.Configuration) { c.Expenses.UnexpectedExpenseChance = decimal.NewFromFloat(1.5) }, domain.ErrConfig},
		{"negative years to work", func(c *domain.Configuration) { c.Income.YearsToWork = -2 }, domain.ErrConfig},
		{"tax rate of one", func(c *domain.Configuration) { c.Taxes.Rate = decimal.NewFromInt(1) }, domain.ErrDomain},
		{"lump sum past horizon", func(c *domain.Configuration) { c.LumpSums[0].Year = 31 }, domain.ErrConfig},
		{"lump sum in year zero", func(c *domain.Configuration) { c.LumpSums[0].Year = 0 }, domain.ErrConfig},
		{"duplicate lump sum year", func(c *domain.Configuration) { c.LumpSums[1].Year = c.LumpSums[0].Year }, domain.ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewInputParser()
			config := parser.CreateExampleConfiguration()
			tt.mutate(config)

			err := parser.ValidateConfiguration(config)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestToSimulationConfig_WeightsHoldings(t *testing.T) {
	parser := NewInputParser()
	config, err := parser.Parse([]byte(validYAML))
	require.NoError(t, err)

	cfg, err := parser.ToSimulationConfig(config)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Seed)
	assert.InDelta(t, 100000, cfg.InitialAssets, 1e-9)
	assert.InDelta(t, 7.0, cfg.ExpectedReturnMean, 1e-9) // 0.75*8 + 0.25*4
	assert.InDelta(t, 0.0, cfg.ExpectedReturnSD, 1e-9)
	amount, ok := cfg.LumpSumFor(2)
	assert.True(t, ok)
	assert.InDelta(t, -5000, amount, 1e-9)
}

func TestToSimulationConfig_GeneratesMissingSeed(t *testing.T) {
	original := seedFunc
	SetSeedFunc(func() int64 { return 777 })
	t.Cleanup(func() { SetSeedFunc(original) })

	parser := NewInputParser()
	config := parser.CreateExampleConfiguration()
	config.Simulation.Seed = nil

	cfg, err := parser.ToSimulationConfig(config)
	require.NoError(t, err)
	assert.Equal(t, int64(777), cfg.Seed)
}

func TestSaveConfiguration_RoundTrip(t *testing.T) {
	parser := NewInputParser()
	original := parser.CreateExampleConfiguration()
	path := filepath.Join(t.TempDir(), "example.yaml")

	require.NoError(t, SaveConfiguration(original, path))
	loaded, err := parser.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, original.Simulation.Years, loaded.Simulation.Years)
	assert.Equal(t, *original.Simulation.Seed, *loaded.Simulation.Seed)
	assert.True(t, original.Portfolio.TotalValue().Equal(loaded.Portfolio.TotalValue()))
	assert.Len(t, loaded.LumpSums, len(original.LumpSums))
}

func replaceLine(doc, old, new string) string {
	out := ""
	replaced := false
	for _, line := range splitLines(doc) {
		if !replaced && line == old {
			replaced = true
			if new == "" {
				continue
			}
			line = new
		}
		out += line + "\n"
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
