package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	fleet "solarfleet/internal/fleet/domain"
)

// BuildFleetPDF renders a minimal PDF report for a fleet snapshot.
func BuildFleetPDF(snap fleet.Snapshot) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Fleet Status Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", snap.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Plants: %d", snap.TotalPlants))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Production (kW): %.2f", snap.ProductionKW))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Consumption (kW): %.2f", snap.ConsumptionKW))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Grid (kW): %.2f", snap.GridKW))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Plant", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Prod (kW)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Cons (kW)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "State", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, status := range snap.Statuses {
		pdf.CellFormat(60, 6, status.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", status.ProductionKW), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", status.ConsumptionKW), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, status.State.String(), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	if len(snap.Alerts) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Alerts")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		for _, alert := range snap.Alerts {
			pdf.Cell(0, 5, fmt.Sprintf("[%s] %s", alert.Severity.String(), alert.Message))
			pdf.Ln(5)
		}
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildFleetXLSX renders a minimal XLSX report for a fleet snapshot.
func BuildFleetXLSX(snap fleet.Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	plantsSheet := "plants"
	alertsSheet := "alerts"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(plantsSheet)
	f.NewSheet(alertsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Fleet Status Report")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", snap.GeneratedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Plants")
	_ = f.SetCellValue(summarySheet, "B4", snap.TotalPlants)
	_ = f.SetCellValue(summarySheet, "A5", "Production (kW)")
	_ = f.SetCellValue(summarySheet, "B5", snap.ProductionKW)
	_ = f.SetCellValue(summarySheet, "A6", "Consumption (kW)")
	_ = f.SetCellValue(summarySheet, "B6", snap.ConsumptionKW)
	_ = f.SetCellValue(summarySheet, "A7", "Grid (kW)")
	_ = f.SetCellValue(summarySheet, "B7", snap.GridKW)

	_ = f.SetCellValue(plantsSheet, "A1", "Plant")
	_ = f.SetCellValue(plantsSheet, "B1", "Capacity (kW)")
	_ = f.SetCellValue(plantsSheet, "C1", "Production (kW)")
	_ = f.SetCellValue(plantsSheet, "D1", "Consumption (kW)")
	_ = f.SetCellValue(plantsSheet, "E1", "Surplus (kW)")
	_ = f.SetCellValue(plantsSheet, "F1", "State")
	_ = f.SetCellValue(plantsSheet, "G1", "Severity")
	for i, status := range snap.Statuses {
		row := i + 2
		_ = f.SetCellValue(plantsSheet, fmt.Sprintf("A%d", row), status.Name)
		_ = f.SetCellValue(plantsSheet, fmt.Sprintf("B%d", row), status.InstalledCapacityKW)
		_ = f.SetCellValue(plantsSheet, fmt.Sprintf("C%d", row), status.ProductionKW)
		_ = f.SetCellValue(plantsSheet, fmt.Sprintf("D%d", row), status.ConsumptionKW)
		_ = f.SetCellValue(plantsSheet, fmt.Sprintf("E%d", row), status.SurplusKW)
		_ = f.SetCellValue(plantsSheet, fmt.Sprintf("F%d", row), status.State.String())
		_ = f.SetCellValue(plantsSheet, fmt.Sprintf("G%d", row), status.Severity.String())
	}

	_ = f.SetCellValue(alertsSheet, "A1", "Severity")
	_ = f.SetCellValue(alertsSheet, "B1", "Message")
	for i, alert := range snap.Alerts {
		row := i + 2
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("A%d", row), alert.Severity.String())
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("B%d", row), alert.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
