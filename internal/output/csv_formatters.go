package output

import (
	"bytes"
	"encoding/csv"
	"errors"

	"github.com/rpgo/escape-velocity/internal/domain"
)

// CSVResultsFormatter exports the median results table, one row per year.
type CSVResultsFormatter struct{}

func (c CSVResultsFormatter) Name() string { return "csv" }

func (c CSVResultsFormatter) Format(report *domain.SimulationReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Year", "Assets", "Income from Assets", "Expenses", "Investment Taxes", "Lump Sum"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range report.Results {
		record := []string{
			intToString(row.Year),
			row.Assets.StringFixed(2),
			row.IncomeFromAssets.StringFixed(2),
			row.Expenses.StringFixed(2),
			row.InvestmentTaxes.StringFixed(2),
			row.LumpSum.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// CSVDistributionFormatter exports the asset and expense coverage box-plot
// statistics. Coverage rows are percentages.
type CSVDistributionFormatter struct{}

func (c CSVDistributionFormatter) Name() string { return "distribution-csv" }

func (c CSVDistributionFormatter) Format(report *domain.SimulationReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"Series", "Year", "Min", "Q1", "Median", "Mean", "Q3", "Max", "Excluded"}); err != nil {
		return nil, err
	}
	series := []struct {
		name string
		rows []domain.DistributionRow
	}{
		{"assets", report.AssetDistribution},
		{"coverage_pct", report.CoverageDistribution},
	}
	for _, s := range series {
		for _, row := range s.rows {
			record := []string{
				s.name,
				intToString(row.Year),
				floatToString(row.Min),
				floatToString(row.Q1),
				floatToString(row.Median),
				floatToString(row.Mean),
				floatToString(row.Q3),
				floatToString(row.Max),
				intToString(row.Excluded),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ErrNoTrajectories is returned when a report carries no raw matrices.
var ErrNoTrajectories = errors.New("report has no trajectories")

// CSVTrajectoriesFormatter exports every simulated cell in long format.
type CSVTrajectoriesFormatter struct{}

func (c CSVTrajectoriesFormatter) Name() string { return "trajectories-csv" }

func (c CSVTrajectoriesFormatter) Format(report *domain.SimulationReport) ([]byte, error) {
	m := report.Trajectories
	if m == nil {
		return nil, ErrNoTrajectories
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Simulation", "Year", "Assets", "Return Dollars", "Expenses", "Taxes Paid", "Lump Sum", "Unexpected Expense"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for s := 0; s < m.NumSimulations(); s++ {
		for y := 0; y < m.NumYears(); y++ {
			record := []string{
				intToString(s + 1),
				intToString(y + 1),
				floatToString(m.Assets[s][y]),
				floatToString(m.ReturnDollars[s][y]),
				floatToString(m.Expenses[s][y]),
				floatToString(m.TaxesPaid[s][y]),
				floatToString(m.LumpSums[s][y]),
				floatToString(m.UnexpectedExpenses[s][y]),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
