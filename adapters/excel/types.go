package excel

// ExcelData represents a sheet as a header row plus data rows of equal width
type ExcelData struct {
	SheetName string     // Sheet the rows were read from
	Headers   []string   // Column headers
	Rows      [][]string // Data rows, padded to len(Headers)
}
