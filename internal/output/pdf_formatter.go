package output

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/rpgo/escape-velocity/internal/domain"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight

	// pageBreakY leaves room for a table row before the bottom margin.
	pageBreakY = 265.0
)

// PDFFormatter renders the key insights, run parameters and yearly tables
// into an A4 document.
type PDFFormatter struct{}

func (p PDFFormatter) Name() string { return "pdf" }

func (p PDFFormatter) Format(report *domain.SimulationReport) ([]byte, error) {
	doc := &pdfReport{pdf: fpdf.New("P", "mm", "A4", ""), report: report}
	doc.pdf.SetMargins(marginLeft, marginTop, marginRight)
	doc.pdf.SetAutoPageBreak(true, marginBottom)
	doc.pdf.SetTitle("Financial Escape Velocity Forecast", false)
	if !report.Metadata.GeneratedAt.IsZero() {
		doc.pdf.SetCreationDate(report.Metadata.GeneratedAt)
	}

	doc.addSummaryPage()
	doc.addResultsTable()
	doc.addDistributionTable()
	doc.addIncomeExpenseTable()

	var buf bytes.Buffer
	if err := doc.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfReport struct {
	pdf    *fpdf.Fpdf
	report *domain.SimulationReport
}

func (r *pdfReport) addSummaryPage() {
	r.pdf.AddPage()
	r.pdf.SetFont("Arial", "B", 22)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 12, "Financial Escape Velocity Forecast", "", 1, "C", false, 0, "")
	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(100, 100, 100)
	meta := r.report.Metadata
	subtitle := fmt.Sprintf("%d simulations over %d years  |  seed %d  |  %s stream",
		r.report.Config.NumSimulations, r.report.Config.NumYears, meta.Seed, meta.StreamMode)
	r.pdf.CellFormat(contentWidth, 6, subtitle, "", 1, "C", false, 0, "")
	r.pdf.Ln(8)

	r.drawSectionHeader("Key Insights")
	widths := []float64{130, 50}
	r.drawTableHeader([]string{"Insight", "Value"}, widths)
	for _, in := range r.report.Insights {
		r.drawTableRow([]string{in.Key, in.Value}, widths, false)
	}
	r.pdf.Ln(8)

	cfg := r.report.Config
	r.drawSectionHeader("Assumptions")
	r.drawTableHeader([]string{"Parameter", "Value"}, widths)
	rows := [][]string{
		{"Initial investable assets", FormatWholeCurrency(cfg.InitialAssets)},
		{"Expected return (mean / sd)", fmt.Sprintf("%.2f%% / %.2f%%", cfg.ExpectedReturnMean, cfg.ExpectedReturnSD)},
		{"Annual expenses (mean / sd)", FormatWholeCurrency(cfg.ExpectedExpenseMean) + " / " + FormatWholeCurrency(cfg.ExpectedExpenseSD)},
		{"Inflation rate", FormatPercentage(cfg.InflationRate * 100)},
		{"Tax rate on asset sales", FormatPercentage(cfg.TaxRate * 100)},
		{"Unexpected expense", fmt.Sprintf("%s at %.0f%%", FormatWholeCurrency(cfg.UnexpectedExpenseAmount), cfg.UnexpectedExpenseChance*100)},
		{"Active income", fmt.Sprintf("%s for %d years", FormatWholeCurrency(cfg.ActiveIncome), cfg.YearsToWork)},
		{"Passive income", FormatWholeCurrency(cfg.PassiveIncome)},
		{"Depletion threshold", FormatWholeCurrency(cfg.DepletionThreshold)},
	}
	for _, year := range cfg.LumpSumYears() {
		amount, _ := cfg.LumpSumFor(year)
		rows = append(rows, []string{fmt.Sprintf("Lump sum, year %d", year), FormatWholeCurrency(amount)})
	}
	for _, row := range rows {
		r.drawTableRow(row, widths, false)
	}
}

func (r *pdfReport) addResultsTable() {
	r.pdf.AddPage()
	r.drawSectionHeader("Median Results by Year")
	headers := []string{"Year", "Assets", "Asset Income", "Expenses", "Inv. Taxes", "Lump Sum"}
	widths := []float64{16, 36, 34, 34, 30, 30}
	r.drawTableHeader(headers, widths)
	for _, row := range r.report.Results {
		if r.pdf.GetY() > pageBreakY {
			r.pdf.AddPage()
			r.drawTableHeader(headers, widths)
		}
		r.drawTableRow([]string{
			intToString(row.Year),
			FormatWholeCurrency(row.Assets.InexactFloat64()),
			FormatWholeCurrency(row.IncomeFromAssets.InexactFloat64()),
			FormatWholeCurrency(row.Expenses.InexactFloat64()),
			FormatWholeCurrency(row.InvestmentTaxes.InexactFloat64()),
			FormatWholeCurrency(row.LumpSum.InexactFloat64()),
		}, widths, false)
	}
}

func (r *pdfReport) addDistributionTable() {
	r.pdf.AddPage()
	r.drawSectionHeader("Asset Distribution by Year")
	headers := []string{"Year", "Min", "Q1", "Median", "Q3", "Max"}
	widths := []float64{20, 32, 32, 32, 32, 32}
	r.drawTableHeader(headers, widths)
	for _, row := range r.report.AssetDistribution {
		if r.pdf.GetY() > pageBreakY {
			r.pdf.AddPage()
			r.drawTableHeader(headers, widths)
		}
		r.drawTableRow([]string{
			intToString(row.Year),
			FormatWholeCurrency(row.Min),
			FormatWholeCurrency(row.Q1),
			FormatWholeCurrency(row.Median),
			FormatWholeCurrency(row.Q3),
			FormatWholeCurrency(row.Max),
		}, widths, false)
	}
}

func (r *pdfReport) addIncomeExpenseTable() {
	r.pdf.AddPage()
	r.drawSectionHeader("Income versus Expenses")
	headers := []string{"Year", "Asset Income", "Expenses", "Active", "Passive", "Surprises"}
	widths := []float64{16, 36, 36, 32, 32, 28}
	r.drawTableHeader(headers, widths)
	for _, p := range r.report.IncomeExpenses {
		if r.pdf.GetY() > pageBreakY {
			r.pdf.AddPage()
			r.drawTableHeader(headers, widths)
		}
		r.drawTableRow([]string{
			intToString(p.Year),
			FormatWholeCurrency(p.MedianNetAssetIncome),
			FormatWholeCurrency(p.MedianExpenses),
			FormatWholeCurrency(p.ActiveIncome),
			FormatWholeCurrency(p.PassiveIncome),
			intToString(p.UnexpectedExpenseHits),
		}, widths, false)
	}
}

func (r *pdfReport) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 16)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 10, title, "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(marginLeft, r.pdf.GetY(), marginLeft+contentWidth, r.pdf.GetY())
	r.pdf.Ln(5)
}

func (r *pdfReport) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)
	for i, header := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, header, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *pdfReport) drawTableRow(cells []string, widths []float64, isBold bool) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)
	if isBold {
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.SetFillColor(240, 240, 240)
	} else {
		r.pdf.SetFont("Arial", "", 9)
	}
	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, cell, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}
