package models

import (
	"fmt"
	"time"
)

// Canonical column names recognised by the ingestor.
const (
	ColumnName       = "Name"
	ColumnPhotoPath  = "Photo Path"
	ColumnID         = "ID"
	ColumnDepartment = "Department"
	ColumnPosition   = "Position"
)

type SpreadsheetFormat string

const (
	FormatXLSX SpreadsheetFormat = "xlsx"
	FormatXLS  SpreadsheetFormat = "xls"
)

type RowStatus string

const (
	RowValid   RowStatus = "valid"
	RowInvalid RowStatus = "invalid"
)

// Dataset is the parsed content of one uploaded spreadsheet.
type Dataset struct {
	ID        string
	Filename  string
	Format    SpreadsheetFormat
	Schema    []string
	Rows      []Row
	CreatedAt time.Time
}

// HasColumn reports whether the schema contains name.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Schema {
		if c == name {
			return true
		}
	}
	return false
}

// InvalidRows counts rows flagged invalid at ingestion.
func (d *Dataset) InvalidRows() int {
	n := 0
	for _, r := range d.Rows {
		if r.Status == RowInvalid {
			n++
		}
	}
	return n
}

// Row is one record of the source sheet. Index is the position in the
// dataset, SourceRow the 1-based row number in the sheet.
type Row struct {
	Index     int
	SourceRow int
	Values    map[string]string
	Status    RowStatus
	Issues    []RowIssue
}

func (r Row) Value(column string) string {
	return r.Values[column]
}

// RowIssue records a non-fatal problem with one row.
type RowIssue struct {
	Row       int    `json:"row"`
	Column    string `json:"column,omitempty"`
	Reference string `json:"reference,omitempty"`
	Reason    string `json:"reason"`
}

func (i RowIssue) String() string {
	s := fmt.Sprintf("row %d", i.Row)
	if i.Column != "" {
		s += fmt.Sprintf(", column %q", i.Column)
	}
	if i.Reference != "" {
		s += fmt.Sprintf(", reference %q", i.Reference)
	}
	return s + ": " + i.Reason
}

// Photo is the resolved image for one row. Data is always a JPEG; when
// Missing is set it holds the placeholder.
type Photo struct {
	Data    []byte
	Format  string
	Missing bool
	Reason  string
}
