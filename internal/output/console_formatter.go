package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rpgo/escape-velocity/internal/domain"
)

// ConsoleFormatter renders the results table and key insights as plain text.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *domain.SimulationReport) ([]byte, error) {
	var buf bytes.Buffer
	cfg := report.Config
	fmt.Fprintln(&buf, "FINANCIAL ESCAPE VELOCITY FORECAST")
	fmt.Fprintln(&buf, strings.Repeat("=", 72))
	fmt.Fprintf(&buf, "Simulations: %d  Years: %d  Seed: %d  Stream: %s\n",
		cfg.NumSimulations, cfg.NumYears, cfg.Seed, report.Metadata.StreamMode)
	fmt.Fprintf(&buf, "Initial assets: %s  Expected return: %.2f%% (sd %.2f%%)  Tax rate: %s\n",
		FormatWholeCurrency(cfg.InitialAssets), cfg.ExpectedReturnMean, cfg.ExpectedReturnSD,
		FormatPercentage(cfg.TaxRate*100))
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "MEDIAN RESULTS BY YEAR")
	fmt.Fprintf(&buf, "%-6s %16s %16s %16s %16s %14s\n",
		"Year", "Assets", "Asset Income", "Expenses", "Invest. Taxes", "Lump Sum")
	fmt.Fprintln(&buf, strings.Repeat("-", 89))
	for _, row := range report.Results {
		lump := ""
		if !row.LumpSum.IsZero() {
			lump = FormatCurrency(row.LumpSum)
		}
		fmt.Fprintf(&buf, "%-6d %16s %16s %16s %16s %14s\n",
			row.Year,
			FormatCurrency(row.Assets),
			FormatCurrency(row.IncomeFromAssets),
			FormatCurrency(row.Expenses),
			FormatCurrency(row.InvestmentTaxes),
			lump,
		)
	}
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "KEY INSIGHTS")
	fmt.Fprintln(&buf, strings.Repeat("-", 72))
	for _, in := range report.Insights {
		fmt.Fprintf(&buf, "%-60s %s\n", in.Key, in.Value)
	}

	if len(report.CoverageDistribution) == 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "Expense coverage distribution unavailable (no finite coverage ratios).")
	}
	return buf.Bytes(), nil
}
