package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"fleetledger/internal/utils"
)

// DocsService renders IFTA report documents as PDF.
type DocsService struct {
	Reports   ReportService
	RequestID string
	// Loader replaces the report build, mainly for tests.
	Loader func(ctx context.Context, userID, quarter string, kind ReportKind, opts ReportOptions) (ReportDocument, error)
}

// GenerateReportPDF builds the report and renders it.
func (s DocsService) GenerateReportPDF(ctx context.Context, userID, quarter string, kind ReportKind, opts ReportOptions) ([]byte, string, error) {
	doc, err := s.load(ctx, userID, quarter, kind, opts)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_report_pdf", fmt.Sprintf("quarter=%s kind=%s", doc.Quarter, doc.Kind))
	return RenderReportPDF(doc)
}

func (s DocsService) load(ctx context.Context, userID, quarter string, kind ReportKind, opts ReportOptions) (ReportDocument, error) {
	if s.Loader != nil {
		return s.Loader(ctx, userID, quarter, kind, opts)
	}
	reports := s.Reports
	reports.RequestID = s.RequestID
	return reports.BuildReport(ctx, userID, quarter, kind, opts)
}

// RenderReportPDF lays out the jurisdiction table, and for detailed reports
// the trip and fuel listings, on A4 pages.
func RenderReportPDF(doc ReportDocument) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("IFTA "+doc.Quarter, false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "IFTA FUEL TAX REPORT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("Quarter      : %s (%s to %s)", doc.Quarter, doc.PeriodStart, doc.PeriodEnd),
		fmt.Sprintf("Report       : %s", doc.Kind),
		fmt.Sprintf("Fleet MPG    : %s%s", utils.FormatMPG(doc.Totals.FleetMPG), fallbackNote(doc.Totals.FleetMPGFromFallback)),
		fmt.Sprintf("Trips        : %d", doc.Totals.TripCount),
		fmt.Sprintf("Fuel receipts: %d (%s)", doc.Totals.FuelPurchaseCount, utils.FormatMoney(doc.Totals.FuelPurchaseAmount)),
		fmt.Sprintf("Generated    : %s UTC", utils.FormatDateTime(doc.GeneratedAt)),
	}
	for _, s := range lines {
		pdf.Cell(0, 6, s)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	widths := []float64{30, 30, 30, 32, 32, 36}
	table(pdf, widths, []string{"Jurisdiction", "Total mi", "Taxable mi", "Taxable gal", "Tax-paid gal", "Net taxable gal"})
	for _, r := range doc.Rows {
		tableRow(pdf, widths, jurisdictionCells(r), false)
	}
	tableRow(pdf, widths, totalCells(doc.Totals), true)
	if doc.HiddenRows > 0 {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 5, fmt.Sprintf("%d jurisdiction(s) with no activity hidden.", doc.HiddenRows))
		pdf.Ln(5)
	}
	if doc.Totals.UnapportionedMiles > 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 5, fmt.Sprintf("%s mi without a jurisdiction counted in fleet totals only.", utils.FormatMiles(doc.Totals.UnapportionedMiles)))
		pdf.Ln(5)
	}

	if doc.Kind == ReportDetailed {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Trips")
		pdf.Ln(10)
		tw := []float64{22, 46, 16, 16, 24, 22, 44}
		table(pdf, tw, []string{"Date", "Vehicle", "From", "To", "Miles", "Gallons", "Source"})
		for _, t := range doc.Trips {
			cells := tripCells(t)
			tableRow(pdf, tw, []string{cells[1], cells[2], cells[3], cells[4], cells[5], cells[6], sourceLabel(t)}, false)
		}

		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Fuel purchases")
		pdf.Ln(10)
		fw := []float64{30, 30, 40, 40}
		table(pdf, fw, []string{"Date", "Jurisdiction", "Gallons", "Amount"})
		for _, p := range doc.FuelPurchases {
			tableRow(pdf, fw, []string{utils.FormatDate(p.Date), p.Jurisdiction, utils.FormatGallons(p.Gallons), utils.FormatMoney(p.TotalAmount)}, false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), ReportFilename(doc, FormatPDF), nil
}

func table(pdf *gofpdf.Fpdf, widths []float64, header []string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func tableRow(pdf *gofpdf.Fpdf, widths []float64, cells []string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 9)
	for i, c := range cells {
		align := "R"
		if i == 0 || strings.ContainsAny(c, "abcdefghijklmnopqrstuvwxyz") {
			align = "L"
		}
		pdf.CellFormat(widths[i], 6, truncate(c, 28), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func fallbackNote(used bool) string {
	if used {
		return " (fallback)"
	}
	return ""
}

func sourceLabel(t ReportTrip) string {
	if t.SourceRef == "" {
		return string(t.SourceKind)
	}
	return string(t.SourceKind) + " " + t.SourceRef
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
