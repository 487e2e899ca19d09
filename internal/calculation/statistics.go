package calculation

import (
	"math"
	"sort"

	"github.com/rpgo/escape-velocity/internal/domain"
)

// FiveNumber is the box-plot summary of a sample plus its mean.
type FiveNumber struct {
	Min    float64
	Q1     float64
	Median float64
	Mean   float64
	Q3     float64
	Max    float64
}

// Quantile returns the p-quantile of an ascending sample using linear
// interpolation between the order statistics around rank p*(n-1).
func Quantile(sorted []float64, p float64) (float64, error) {
	n := len(sorted)
	if n == 0 {
		return 0, domain.NewNumericError("quantile", "empty sample")
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, domain.NewNumericError("quantile", "fraction %v outside [0, 1]", p)
	}
	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, nil
}

// Median returns the interpolated median of values without modifying them.
func Median(values []float64) (float64, error) {
	sorted := sortedCopy(values)
	return Quantile(sorted, 0.5)
}

// medianInts is Median for integer samples.
func medianInts(values []int) (float64, error) {
	f := make([]float64, len(values))
	for i, v := range values {
		f[i] = float64(v)
	}
	return Median(f)
}

// Summarize computes the five-number summary and mean of values. Non-finite
// samples are left out and counted in excluded; a sample with no finite
// values is a NumericError.
func Summarize(values []float64) (FiveNumber, int, error) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		finite = append(finite, v)
	}
	excluded := len(values) - len(finite)
	if len(finite) == 0 {
		return FiveNumber{}, excluded, domain.NewNumericError("summary", "no finite values among %d samples", len(values))
	}
	sort.Float64s(finite)

	var sum float64
	for _, v := range finite {
		sum += v
	}
	q1, _ := Quantile(finite, 0.25)
	median, _ := Quantile(finite, 0.5)
	q3, _ := Quantile(finite, 0.75)
	summary := FiveNumber{
		Min:    finite[0],
		Q1:     q1,
		Median: median,
		Mean:   sum / float64(len(finite)),
		Q3:     q3,
		Max:    finite[len(finite)-1],
	}
	if math.IsInf(summary.Mean, 0) {
		return FiveNumber{}, excluded, domain.NewNumericError("summary", "mean overflows")
	}
	return summary, excluded, nil
}

// SummarizeStrict is Summarize for samples that must be entirely finite.
// Any NaN or Inf is a NumericError rather than an exclusion.
func SummarizeStrict(field string, values []float64) (FiveNumber, error) {
	if err := requireFinite(field, values); err != nil {
		return FiveNumber{}, err
	}
	summary, _, err := Summarize(values)
	return summary, err
}

// DistributionRow converts the summary into a report row for year.
func (f FiveNumber) DistributionRow(year, excluded int) domain.DistributionRow {
	return domain.DistributionRow{
		Year:     year,
		Min:      f.Min,
		Q1:       f.Q1,
		Median:   f.Median,
		Mean:     f.Mean,
		Q3:       f.Q3,
		Max:      f.Max,
		Excluded: excluded,
	}
}

// requireFinite fails on the first NaN or Inf in values.
func requireFinite(field string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.NewNumericError(field, "sample %d is %v", i, v)
		}
	}
	return nil
}

func sortedCopy(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted
}

// checkFinite fails with a NumericError when v would leak NaN or Inf into a
// reported statistic.
func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.NewNumericError(field, "statistic is %v", v)
	}
	return nil
}
