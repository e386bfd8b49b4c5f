package output

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/domain"
)

// SaveExcel writes a workbook with a data sheet and a summary sheet.
func (w *Writer) SaveExcel(records []*domain.CompanyRecord, baseName string) (string, error) {
	path := w.timestampedPath(baseName, "xlsx")

	f := excelize.NewFile()
	defer f.Close()

	const dataSheet = "Companies"
	f.SetSheetName("Sheet1", dataSheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return "", err
	}

	for col, name := range csvHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(dataSheet, cell, name); err != nil {
			return "", err
		}
		if err := f.SetCellStyle(dataSheet, cell, cell, headerStyle); err != nil {
			return "", err
		}
	}

	for row, record := range records {
		for col, value := range flattenRecord(record) {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(dataSheet, cell, value); err != nil {
				return "", err
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(csvHeader))
	if err != nil {
		return "", err
	}
	if err := f.SetColWidth(dataSheet, "A", lastCol, 28); err != nil {
		return "", err
	}

	if err := w.writeSummarySheet(f, headerStyle, records); err != nil {
		return "", err
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to write Excel output: %w", err)
	}
	return path, nil
}

func (w *Writer) writeSummarySheet(f *excelize.File, headerStyle int, records []*domain.CompanyRecord) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	stats := Summarize(records)
	rows := [][2]any{
		{"Metric", "Value"},
		{"Total companies", stats.TotalCompanies},
		{"With email", stats.WithEmail},
		{"With phone", stats.WithPhone},
	}
	for _, level := range []string{"basic", "medium", "advanced"} {
		if n := stats.ByLevel[level]; n > 0 {
			rows = append(rows, [2]any{fmt.Sprintf("Level: %s", level), n})
		}
	}
	industries := make([]string, 0, len(stats.ByIndustry))
	for industry := range stats.ByIndustry {
		industries = append(industries, industry)
	}
	sort.Strings(industries)
	for _, industry := range industries {
		rows = append(rows, [2]any{fmt.Sprintf("Industry: %s", industry), stats.ByIndustry[industry]})
	}

	for i, row := range rows {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", i+1), row[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "B", 24)
}
