package domain

// IncomeSchedule holds the deterministic per-year income streams. Index y is
// the 0-based simulation year; reported years are y+1.
type IncomeSchedule struct {
	ActiveIncomeByYear  []float64 `json:"active_income_by_year" yaml:"active_income_by_year"`
	PassiveIncomeByYear []float64 `json:"passive_income_by_year" yaml:"passive_income_by_year"`
}

// IncomeFor returns the combined active and passive income for year index y.
func (s IncomeSchedule) IncomeFor(y int) float64 {
	return s.ActiveIncomeByYear[y] + s.PassiveIncomeByYear[y]
}

// Len returns the number of scheduled years.
func (s IncomeSchedule) Len() int { return len(s.PassiveIncomeByYear) }

// TrajectoryMatrices holds the raw simulator output, indexed
// [simulation][year]. Every cell is populated.
type TrajectoryMatrices struct {
	Assets        [][]float64 `json:"assets" yaml:"assets"`
	ReturnDollars [][]float64 `json:"return_dollars" yaml:"return_dollars"`
	Expenses      [][]float64 `json:"expenses" yaml:"expenses"`
	TaxesPaid     [][]float64 `json:"taxes_paid" yaml:"taxes_paid"`
	LumpSums      [][]float64 `json:"lump_sums" yaml:"lump_sums"`

	// UnexpectedExpenses holds the flat unexpected expense added in a cell,
	// zero when the draw missed.
	UnexpectedExpenses [][]float64 `json:"unexpected_expenses" yaml:"unexpected_expenses"`
}

// NewTrajectoryMatrices allocates zeroed matrices for sims rows of years columns.
func NewTrajectoryMatrices(sims, years int) *TrajectoryMatrices {
	alloc := func() [][]float64 {
		backing := make([]float64, sims*years)
		rows := make([][]float64, sims)
		for s := range rows {
			rows[s] = backing[s*years : (s+1)*years : (s+1)*years]
		}
		return rows
	}
	return &TrajectoryMatrices{
		Assets:             alloc(),
		ReturnDollars:      alloc(),
		Expenses:           alloc(),
		TaxesPaid:          alloc(),
		LumpSums:           alloc(),
		UnexpectedExpenses: alloc(),
	}
}

// NumSimulations returns the number of rows.
func (m *TrajectoryMatrices) NumSimulations() int { return len(m.Assets) }

// NumYears returns the number of columns.
func (m *TrajectoryMatrices) NumYears() int {
	if len(m.Assets) == 0 {
		return 0
	}
	return len(m.Assets[0])
}

// UnexpectedExpenseHits counts, per year, the simulations that drew an
// unexpected expense.
func (m *TrajectoryMatrices) UnexpectedExpenseHits() []int {
	hits := make([]int, m.NumYears())
	for _, row := range m.UnexpectedExpenses {
		for y, v := range row {
			if v != 0 {
				hits[y]++
			}
		}
	}
	return hits
}

// Column copies year y across all simulations of a matrix.
func Column(matrix [][]float64, y int) []float64 {
	col := make([]float64, len(matrix))
	for s, row := range matrix {
		col[s] = row[y]
	}
	return col
}
