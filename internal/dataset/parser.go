// Package dataset decodes uploaded tabular bytes into a typed Dataset.
//
// Column kinds are decided here, once: a column is numeric when every
// non-missing cell parses as a finite float, otherwise it is text.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"crminsight/adapters/excel"
	"crminsight/domain/core"
	"crminsight/domain/dataset"
)

// missingTokens are cell values treated as absent
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
	"None": true,
}

// Parser turns raw bytes into datasets
type Parser struct {
	excelConfig excel.ExcelConfig
}

// NewParser creates a parser with default workbook settings
func NewParser() *Parser {
	return &Parser{excelConfig: excel.DefaultExcelConfig()}
}

// NewParserWithConfig creates a parser with custom workbook settings
func NewParserWithConfig(excelConfig excel.ExcelConfig) *Parser {
	return &Parser{excelConfig: excelConfig}
}

// FormatForFilename picks the decoder for an uploaded filename
func FormatForFilename(filename string) (dataset.Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return dataset.FormatCSV, nil
	case ".xlsx":
		return dataset.FormatWorkbook, nil
	default:
		return "", core.NewFormatError(fmt.Sprintf("unsupported file '%s', upload a .csv or .xlsx file", filename), nil)
	}
}

// Parse decodes raw bytes in the given format
func (p *Parser) Parse(raw []byte, format dataset.Format) (*dataset.Dataset, error) {
	startTime := time.Now()

	var (
		headers []string
		rows    [][]string
		err     error
	)
	switch format {
	case dataset.FormatCSV:
		headers, rows, err = p.readCSV(raw)
	case dataset.FormatWorkbook:
		headers, rows, err = p.readWorkbook(raw)
	default:
		return nil, core.NewFormatError(fmt.Sprintf("unsupported format %q", format), nil)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrEmptyDataset
	}

	ds, err := dataset.New(buildColumns(headers, rows))
	if err != nil {
		return nil, err
	}
	ds.Fingerprint = core.NewHash(raw)
	ds.Source = format

	log.Printf("[DatasetParser] Parsed %s in %.2fms (%d columns, %d rows)",
		format, float64(time.Since(startTime).Nanoseconds())/1e6, len(headers), len(rows))
	return ds, nil
}

// ParseCSV is shorthand for Parse(raw, FormatCSV)
func (p *Parser) ParseCSV(raw []byte) (*dataset.Dataset, error) {
	return p.Parse(raw, dataset.FormatCSV)
}

func (p *Parser) readCSV(raw []byte) ([]string, [][]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, core.NewFormatError("CSV is empty", nil)
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, core.NewFormatError("failed to read CSV data", err)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		// strip a UTF-8 byte order mark left by spreadsheet exports
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]string, len(record))
		for j, value := range record {
			row[j] = strings.TrimSpace(value)
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

func (p *Parser) readWorkbook(raw []byte) ([]string, [][]string, error) {
	data, err := excel.NewDataReader(p.excelConfig).ReadData(raw)
	if err != nil {
		return nil, nil, core.NewFormatError("failed to read workbook", err)
	}
	return data.Headers, data.Rows, nil
}

// buildColumns transposes rows into typed columns
func buildColumns(headers []string, rows [][]string) []*dataset.Column {
	columns := make([]*dataset.Column, len(headers))
	for j, name := range headers {
		col := &dataset.Column{
			Name:    name,
			Raw:     make([]string, len(rows)),
			Missing: make([]bool, len(rows)),
		}
		for i, row := range rows {
			col.Raw[i] = row[j]
			col.Missing[i] = missingTokens[row[j]]
		}
		col.Kind, col.Numbers = inferKind(col)
		columns[j] = col
	}
	return columns
}

// inferKind returns KindNumeric with parsed values, or KindText
func inferKind(col *dataset.Column) (dataset.ColumnKind, []float64) {
	numbers := make([]float64, len(col.Raw))
	for i, value := range col.Raw {
		if col.Missing[i] {
			numbers[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return dataset.KindText, nil
		}
		numbers[i] = f
	}
	return dataset.KindNumeric, numbers
}
