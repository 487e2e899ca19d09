package output

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatCurrency(t *testing.T) {
	v := decimal.NewFromFloat(1234.567)
	got := FormatCurrency(v)
	want := "$1,234.57"
	if got != want {
		t.Errorf("FormatCurrency(%v) = %q, want %q", v, got, want)
	}
}

func TestFormatWholeCurrency(t *testing.T) {
	if got, want := FormatWholeCurrency(122504.3), "$122,504"; got != want {
		t.Errorf("FormatWholeCurrency = %q, want %q", got, want)
	}
}

func TestFormatPercentage(t *testing.T) {
	got := FormatPercentage(12.3456)
	want := "12.35%"
	if got != want {
		t.Errorf("FormatPercentage(12.3456) = %q, want %q", got, want)
	}
}

func TestIntToString(t *testing.T) {
	if got, want := intToString(42), "42"; got != want {
		t.Errorf("intToString(42) = %q, want %q", got, want)
	}
}

func TestFloatToString(t *testing.T) {
	if got, want := floatToString(-48900.004), "-48900.00"; got != want {
		t.Errorf("floatToString = %q, want %q", got, want)
	}
}
