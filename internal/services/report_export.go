package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"fleetledger/internal/domain"
	"fleetledger/internal/utils"
)

// Report output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

var (
	jurisdictionHeader = []string{"jurisdiction", "total_miles", "taxable_miles", "taxable_gallons", "tax_paid_gallons", "net_taxable_gallons"}
	tripHeader         = []string{"trip_id", "trip_date", "vehicle", "start_jurisdiction", "end_jurisdiction", "total_miles", "gallons_consumed", "source_kind", "source_ref"}
	fuelHeader         = []string{"purchase_id", "date", "jurisdiction", "gallons", "total_amount"}
)

func jurisdictionCells(r domain.JurisdictionRow) []string {
	return []string{
		r.Jurisdiction,
		utils.FormatMiles(r.TotalMiles),
		utils.FormatMiles(r.TaxableMiles),
		utils.FormatGallons(r.TaxableGallons),
		utils.FormatGallons(r.TaxPaidGallons),
		utils.FormatGallons(r.NetTaxableGallons),
	}
}

func totalCells(t domain.LedgerTotals) []string {
	return []string{
		"TOTAL",
		utils.FormatMiles(t.TotalMiles),
		utils.FormatMiles(t.TaxableMiles),
		utils.FormatGallons(t.TaxableGallons),
		utils.FormatGallons(t.TaxPaidGallons),
		utils.FormatGallons(t.NetTaxableGallons),
	}
}

func tripCells(t ReportTrip) []string {
	gallons := ""
	if t.GallonsConsumed != nil {
		gallons = utils.FormatGallons(*t.GallonsConsumed)
	}
	return []string{
		t.ID,
		utils.FormatDate(t.TripDate),
		t.VehicleLabel,
		t.StartJurisdiction,
		t.EndJurisdiction,
		utils.FormatMiles(t.TotalMiles),
		gallons,
		string(t.SourceKind),
		t.SourceRef,
	}
}

// SerializeReport renders the document as CSV. Sections are separated by a
// blank line and a "# name" marker. Column order never changes; miles carry
// one decimal, gallons three and money two.
func SerializeReport(doc ReportDocument) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	write := func(rec []string) {
		_ = w.Write(rec)
	}
	section := func(name string) {
		write([]string{"# " + name})
	}

	section("report")
	write([]string{"kind", "quarter", "period_start", "period_end", "fleet_mpg", "fleet_mpg_fallback", "generated_at"})
	write([]string{
		string(doc.Kind),
		doc.Quarter,
		doc.PeriodStart,
		doc.PeriodEnd,
		utils.FormatMPG(doc.Totals.FleetMPG),
		strconv.FormatBool(doc.Totals.FleetMPGFromFallback),
		utils.FormatDateTime(doc.GeneratedAt),
	})
	write(nil)

	section("jurisdictions")
	write(jurisdictionHeader)
	for _, row := range doc.Rows {
		write(jurisdictionCells(row))
	}
	write(totalCells(doc.Totals))

	if doc.Kind == ReportDetailed {
		write(nil)
		section("trips")
		write(tripHeader)
		for _, t := range doc.Trips {
			write(tripCells(t))
		}

		write(nil)
		section("fuel_purchases")
		write(fuelHeader)
		for _, f := range doc.FuelPurchases {
			write([]string{
				f.ID,
				utils.FormatDate(f.Date),
				f.Jurisdiction,
				utils.FormatGallons(f.Gallons),
				utils.FormatMoney(f.TotalAmount),
			})
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("csv write: %w", err)
	}
	return buf.String(), nil
}

// RenderReportXLSX writes the document as a workbook with one sheet per
// section.
func RenderReportXLSX(doc ReportDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Jurisdictions"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	writeRow := func(sheet string, row int, cells []string) {
		for i, v := range cells {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if n, err := strconv.ParseFloat(v, 64); err == nil && i > 0 {
				_ = f.SetCellValue(sheet, cell, n)
				continue
			}
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	writeRow(summarySheet, 1, []string{"IFTA " + doc.Quarter, doc.PeriodStart + " - " + doc.PeriodEnd})
	writeRow(summarySheet, 2, []string{"Fleet MPG", utils.FormatMPG(doc.Totals.FleetMPG)})
	writeRow(summarySheet, 4, jurisdictionHeader)
	row := 5
	for _, r := range doc.Rows {
		writeRow(summarySheet, row, jurisdictionCells(r))
		row++
	}
	writeRow(summarySheet, row, totalCells(doc.Totals))
	_ = f.SetColWidth(summarySheet, "A", "A", 16)
	_ = f.SetColWidth(summarySheet, "B", "F", 20)

	if doc.Kind == ReportDetailed {
		const tripSheet = "Trips"
		if _, err := f.NewSheet(tripSheet); err != nil {
			return nil, err
		}
		writeRow(tripSheet, 1, tripHeader)
		for i, t := range doc.Trips {
			writeRow(tripSheet, i+2, tripCells(t))
		}
		_ = f.SetColWidth(tripSheet, "A", "A", 38)
		_ = f.SetColWidth(tripSheet, "C", "C", 28)

		const fuelSheet = "Fuel Purchases"
		if _, err := f.NewSheet(fuelSheet); err != nil {
			return nil, err
		}
		writeRow(fuelSheet, 1, fuelHeader)
		for i, p := range doc.FuelPurchases {
			writeRow(fuelSheet, i+2, []string{
				p.ID,
				utils.FormatDate(p.Date),
				p.Jurisdiction,
				utils.FormatGallons(p.Gallons),
				utils.FormatMoney(p.TotalAmount),
			})
		}
	}

	idx, _ := f.GetSheetIndex(summarySheet)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportFilename names a rendered report, e.g. IFTA_2025-Q1_summary.csv.
func ReportFilename(doc ReportDocument, format string) string {
	return fmt.Sprintf("IFTA_%s_%s.%s", utils.SafeFilenamePart(doc.Quarter), doc.Kind, format)
}
