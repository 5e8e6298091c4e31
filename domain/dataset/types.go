package dataset

import (
	"fmt"
	"math"
	"time"

	"crminsight/domain/core"
)

// ColumnKind is the type tag assigned to a column once, at ingestion
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
)

// Format identifies the encoding of ingested bytes
type Format string

const (
	FormatCSV      Format = "csv"
	FormatWorkbook Format = "xlsx"
)

// Column is a named, homogeneous sequence of cells.
// Raw always holds the trimmed cell text; Numbers is populated for numeric
// columns only, with NaN marking a missing cell.
type Column struct {
	Name    string     `json:"name"`
	Kind    ColumnKind `json:"kind"`
	Raw     []string   `json:"-"`
	Numbers []float64  `json:"-"`
	Missing []bool     `json:"-"`
}

// Len returns the number of cells in the column
func (c *Column) Len() int {
	return len(c.Raw)
}

// IsMissing reports whether cell i holds no value
func (c *Column) IsMissing(i int) bool {
	return c.Missing[i]
}

// Text returns cell i as text
func (c *Column) Text(i int) string {
	return c.Raw[i]
}

// Number returns cell i as a float; NaN for missing or non-numeric cells
func (c *Column) Number(i int) float64 {
	if c.Kind != KindNumeric || c.Missing[i] {
		return math.NaN()
	}
	return c.Numbers[i]
}

// Observed returns the non-missing numeric values of the column
func (c *Column) Observed() []float64 {
	out := make([]float64, 0, len(c.Numbers))
	for i, v := range c.Numbers {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is an ordered collection of equal-length named columns
type Dataset struct {
	Columns     []*Column `json:"columns"`
	Fingerprint core.Hash `json:"fingerprint"`
	Source      Format    `json:"source"`
	LoadedAt    time.Time `json:"loaded_at"`

	rows  int
	index map[string]int
}

// New assembles a dataset, validating that names are unique and lengths agree
func New(columns []*Column) (*Dataset, error) {
	ds := &Dataset{
		Columns:  columns,
		LoadedAt: time.Now(),
		index:    make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col.Name == "" {
			return nil, core.NewFormatError(fmt.Sprintf("column %d has a blank header", i+1), nil)
		}
		if _, dup := ds.index[col.Name]; dup {
			return nil, core.NewFormatError(fmt.Sprintf("duplicate column '%s'", col.Name), nil)
		}
		if i > 0 && col.Len() != ds.rows {
			return nil, core.NewFormatError(fmt.Sprintf("column '%s' has %d cells, expected %d", col.Name, col.Len(), ds.rows), nil)
		}
		ds.index[col.Name] = i
		ds.rows = col.Len()
	}
	if len(columns) == 0 || ds.rows == 0 {
		return nil, core.ErrEmptyDataset
	}
	return ds, nil
}

// Rows returns the row count
func (d *Dataset) Rows() int {
	return d.rows
}

// ColumnNames returns the column names in order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		names[i] = col.Name
	}
	return names
}

// Column looks a column up by name
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Columns[i], true
}

// Has reports whether the dataset has a column with the given name
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// FieldInfo describes a single column for the ingestion summary
type FieldInfo struct {
	Name         string             `json:"name"`
	DataType     ColumnKind         `json:"data_type"`
	Nullable     bool               `json:"nullable"`
	UniqueCount  int                `json:"unique_count"`
	MissingCount int                `json:"missing_count"`
	TopValue     string             `json:"top_value,omitempty"`
	Statistics   map[string]float64 `json:"statistics,omitempty"`
	IsNormal     *bool              `json:"is_normal,omitempty"`
}

// Summary is returned by ingestion
type Summary struct {
	Rows        int         `json:"rows"`
	Columns     []string    `json:"columns"`
	Fingerprint core.Hash   `json:"fingerprint"`
	Source      Format      `json:"source"`
	Fields      []FieldInfo `json:"fields,omitempty"`
}
