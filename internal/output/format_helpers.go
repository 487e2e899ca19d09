package output

import (
	"fmt"
	"strconv"

	money "github.com/rpgo/escape-velocity/pkg/decimal"
	"github.com/shopspring/decimal"
)

// FormatCurrency formats a decimal as USD currency with 2 decimals and
// thousands separators.
func FormatCurrency(amount decimal.Decimal) string {
	return money.NewMoneyFromDecimal(amount).Format()
}

// FormatWholeCurrency formats a float dollar amount rounded to whole dollars.
func FormatWholeCurrency(amount float64) string { return money.NewMoney(amount).FormatWhole() }

// FormatPercentage formats a percentage value with 2 decimals.
func FormatPercentage(pct float64) string { return fmt.Sprintf("%.2f%%", pct) }

func intToString(i int) string { return strconv.Itoa(i) }

// floatToString renders a float with fixed cents for CSV cells.
func floatToString(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }
