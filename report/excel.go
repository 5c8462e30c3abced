// Package report turns persisted capture logs into human-facing artifacts:
// an Excel workbook with the per-sample ones-counts, cumulative mean and
// Z-score plus a line chart, and a concatenation helper for tabular logs.
package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Thiagojm/rngkit-go/zscore"
)

const (
	sheetName     = "Zscore"
	onesColumn    = "ones"
	meanColumn    = "cumulative_mean"
	zColumn       = "z_test"
	samplesHeader = "samples"
	timeHeader    = "time"
)

// WriteExcel writes records to an .xlsx next to the source path (same base
// name) with a line chart of the Z-score, and returns the output path.
// The first column is labeled "time" for .csv sources and "samples" for
// .bin sources, since only the tabular log carries timestamps.
func WriteExcel(records []zscore.Record, sourcePath string, sampleBits, intervalSeconds int) (string, error) {
	if len(records) == 0 {
		return "", errors.New("no data to write")
	}
	firstHeader := samplesHeader
	if strings.EqualFold(filepath.Ext(sourcePath), ".csv") {
		firstHeader = timeHeader
	}
	outPath := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".xlsx"

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if defaultSheet != sheetName {
		f.NewSheet(sheetName)
		f.DeleteSheet(defaultSheet)
	}

	_ = f.SetCellStr(sheetName, "A1", firstHeader)
	_ = f.SetCellStr(sheetName, "B1", onesColumn)
	_ = f.SetCellStr(sheetName, "C1", meanColumn)
	_ = f.SetCellStr(sheetName, "D1", zColumn)

	for i, r := range records {
		row := i + 2
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), r.Label)
		_ = f.SetCellInt(sheetName, fmt.Sprintf("B%d", row), r.Ones)
		_ = f.SetCellFloat(sheetName, fmt.Sprintf("C%d", row), r.CumulativeMean, 6, 64)
		_ = f.SetCellFloat(sheetName, fmt.Sprintf("D%d", row), r.Z, 6, 64)
	}

	endRow := len(records) + 1
	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$D$1", sheetName),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetName, endRow),
				Values:     fmt.Sprintf("%s!$D$2:$D$%d", sheetName, endRow),
			},
		},
		Title:  []excelize.RichTextRun{{Text: filepath.Base(sourcePath)}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: fmt.Sprintf("Number of Samples - one sample every %d second(s)", intervalSeconds)}},
		},
		YAxis: excelize.ChartAxis{
			Title:          []excelize.RichTextRun{{Text: fmt.Sprintf("Z-score - Sample Size = %d bits", sampleBits)}},
			MajorGridLines: true,
		},
	}
	if err := f.AddChart(sheetName, "F2", chart); err != nil {
		return "", err
	}
	if err := f.SaveAs(outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// Analyze replays a persisted .bin or .csv log and writes the Excel report,
// returning the report path and the number of samples analyzed.
func Analyze(path string, sampleBits, intervalSeconds int) (string, int, error) {
	var records []zscore.Record
	err := zscore.ReplayFile(path, sampleBits, func(r zscore.Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	out, err := WriteExcel(records, path, sampleBits, intervalSeconds)
	if err != nil {
		return "", 0, err
	}
	return out, len(records), nil
}
