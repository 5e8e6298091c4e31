package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"crminsight/adapters/excel"
	"crminsight/domain/core"
	"crminsight/domain/dataset"
)

func TestParseCSV_RowAndColumnCounts(t *testing.T) {
	raw := []byte("customer_id,age,plan_type,churn\nc1,34,basic,0\nc2,51,pro,1\nc3,29,basic,0\nc4,62,pro,1\n")

	ds, err := NewParser().ParseCSV(raw)
	require.NoError(t, err)

	assert.Equal(t, 4, ds.Rows())
	assert.Equal(t, []string{"customer_id", "age", "plan_type", "churn"}, ds.ColumnNames())
	assert.Equal(t, core.NewHash(raw), ds.Fingerprint)
	assert.Equal(t, dataset.FormatCSV, ds.Source)
}

func TestParseCSV_ColumnKinds(t *testing.T) {
	raw := []byte("id,age,plan,score,flag\n1,34,basic,1.5,yes\n2,,pro,-2e3,no\n3,40,NA,inf,yes\n")

	ds, err := NewParser().ParseCSV(raw)
	require.NoError(t, err)

	kinds := map[string]dataset.ColumnKind{}
	for _, col := range ds.Columns {
		kinds[col.Name] = col.Kind
	}
	assert.Equal(t, dataset.KindNumeric, kinds["id"])
	assert.Equal(t, dataset.KindNumeric, kinds["age"])
	assert.Equal(t, dataset.KindText, kinds["plan"])
	// infinities are not accepted as numbers
	assert.Equal(t, dataset.KindText, kinds["score"])
	assert.Equal(t, dataset.KindText, kinds["flag"])

	age, _ := ds.Column("age")
	assert.True(t, age.IsMissing(1))
	assert.True(t, math.IsNaN(age.Number(1)))
	assert.Equal(t, 40.0, age.Number(2))
	assert.Equal(t, []float64{34, 40}, age.Observed())

	plan, _ := ds.Column("plan")
	assert.True(t, plan.IsMissing(2))
	assert.Equal(t, "pro", plan.Text(1))
}

func TestParseCSV_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"whitespace only", "  \n \n"},
		{"header only", "customer_id,age,churn\n"},
		{"ragged rows", "a,b\n1,2\n3\n"},
		{"duplicate header", "a,a\n1,2\n"},
		{"blank header", "a,\n1,2\n"},
		{"unterminated quote", "a,b\n\"1,2\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewParser().ParseCSV([]byte(test.raw))
			require.Error(t, err)
			assert.True(t, core.IsFormatError(err), "expected FormatError, got %v", err)
		})
	}
}

func TestParseCSV_TrimsWhitespaceAndBOM(t *testing.T) {
	raw := []byte("\ufeffname , plan\n  ann ,  basic \n")

	ds, err := NewParser().ParseCSV(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "plan"}, ds.ColumnNames())

	plan, ok := ds.Column("plan")
	require.True(t, ok)
	assert.Equal(t, "basic", plan.Text(0))
}

func TestFormatForFilename(t *testing.T) {
	format, err := FormatForFilename("Customers.CSV")
	require.NoError(t, err)
	assert.Equal(t, dataset.FormatCSV, format)

	format, err = FormatForFilename("book.xlsx")
	require.NoError(t, err)
	assert.Equal(t, dataset.FormatWorkbook, format)

	_, err = FormatForFilename("notes.txt")
	assert.True(t, core.IsFormatError(err))
}

func TestParse_Workbook(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"customer_id", "age", "plan_type", "churn"},
		{"c1", 34, "basic", 0},
		{"c2", 51, "pro", 1},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ds, err := NewParser().Parse(buf.Bytes(), dataset.FormatWorkbook)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Rows())
	age, _ := ds.Column("age")
	assert.Equal(t, dataset.KindNumeric, age.Kind)
	assert.Equal(t, dataset.FormatWorkbook, ds.Source)
}

func TestParse_WorkbookNamedSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"notes"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"draft"}))
	_, err := f.NewSheet("Customers")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Customers", "A1", &[]interface{}{"customer_id", "churn"}))
	require.NoError(t, f.SetSheetRow("Customers", "A2", &[]interface{}{"c1", 1}))
	require.NoError(t, f.SetSheetRow("Customers", "A3", &[]interface{}{"c2", 0}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ds, err := NewParserWithConfig(excel.ExcelConfig{SheetName: "Customers"}).Parse(buf.Bytes(), dataset.FormatWorkbook)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Rows())
	assert.Equal(t, []string{"customer_id", "churn"}, ds.ColumnNames())

	first, err := NewParser().Parse(buf.Bytes(), dataset.FormatWorkbook)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes"}, first.ColumnNames())
}

func TestParse_WorkbookHeaderOnly(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"a", "b"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = NewParser().Parse(buf.Bytes(), dataset.FormatWorkbook)
	assert.True(t, core.IsFormatError(err))
}
