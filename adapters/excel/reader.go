package excel

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DataReader reads a workbook held in memory
type DataReader struct {
	config ExcelConfig
}

// NewDataReader creates a workbook reader
func NewDataReader(config ExcelConfig) *DataReader {
	return &DataReader{config: config}
}

// ReadData decodes workbook bytes into headers and rows
func (r *DataReader) ReadData(raw []byte) (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := r.config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[DataReader] Sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	return r.processRows(sheet, rows), nil
}

// processRows trims cells and pads short rows; excelize drops trailing empty cells
func (r *DataReader) processRows(sheet string, rows [][]string) *ExcelData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	var dataRows [][]string
	for i := 1; i < len(rows); i++ {
		if r.config.MaxRows > 0 && len(dataRows) >= r.config.MaxRows {
			break
		}
		if isBlankRow(rows[i]) {
			continue
		}
		row := make([]string, len(headers))
		for j, cell := range rows[i] {
			if j < len(headers) {
				row[j] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, row)
	}

	return &ExcelData{
		SheetName: sheet,
		Headers:   headers,
		Rows:      dataRows,
	}
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
