package calculation

import (
	"math"

	"github.com/rpgo/escape-velocity/internal/domain"
)

// BuildIncomeSchedule precomputes active and passive income per year. It uses
// no randomness and is shared by every simulation of a run.
func BuildIncomeSchedule(cfg domain.SimulationConfig) domain.IncomeSchedule {
	years := cfg.NumYears
	if years < 0 {
		years = 0
	}
	schedule := domain.IncomeSchedule{
		ActiveIncomeByYear:  make([]float64, years),
		PassiveIncomeByYear: make([]float64, years),
	}
	for y := 0; y < years; y++ {
		if y < cfg.YearsToWork {
			schedule.ActiveIncomeByYear[y] = cfg.ActiveIncome * math.Pow(1+cfg.ActiveIncomeGrowthRate, float64(y))
		}
		schedule.PassiveIncomeByYear[y] = cfg.PassiveIncome * math.Pow(1+cfg.PassiveIncomeGrowthRate, float64(y))
	}
	return schedule
}
