package excel

// ExcelConfig holds configuration for workbook ingestion
type ExcelConfig struct {
	// SheetName selects the sheet to read; empty means the first sheet
	SheetName string `json:"sheet_name"`
	// MaxRows caps data rows read from the sheet; 0 means unlimited
	MaxRows int `json:"max_rows"`
}

// DefaultExcelConfig returns sensible defaults for workbook processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{}
}
