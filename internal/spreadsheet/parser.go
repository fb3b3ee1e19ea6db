// Package spreadsheet turns uploaded XLSX and XLS workbooks into datasets.
// Only the first worksheet is read and its first non-blank row is the header.
package spreadsheet

import (
	"bytes"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"idcard-backend/internal/models"
)

var (
	xlsxMagic = []byte("PK\x03\x04")
	xlsMagic  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

type Parser struct {
	MaxRows int
}

func NewParser(maxRows int) *Parser {
	return &Parser{MaxRows: maxRows}
}

// DetectFormat sniffs the workbook format from its leading bytes, falling
// back to the file extension.
func DetectFormat(filename string, data []byte) (models.SpreadsheetFormat, bool) {
	switch {
	case bytes.HasPrefix(data, xlsxMagic):
		return models.FormatXLSX, true
	case bytes.HasPrefix(data, xlsMagic):
		return models.FormatXLS, true
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return models.FormatXLSX, true
	case ".xls":
		return models.FormatXLS, true
	}
	return "", false
}

// Parse reads the first worksheet of data into a dataset with a fresh id.
func (p *Parser) Parse(filename string, data []byte) (*models.Dataset, error) {
	if len(data) == 0 {
		return nil, &MalformedFileError{Filename: filename, Reason: "file is empty"}
	}

	format, ok := DetectFormat(filename, data)
	if !ok {
		return nil, &MalformedFileError{Filename: filename, Reason: "unsupported file type, expected .xlsx or .xls"}
	}

	c := &collector{max: p.MaxRows}
	var err error
	switch format {
	case models.FormatXLS:
		err = readXLS(filename, data, c.add)
	default:
		err = readXLSX(filename, data, c.add)
	}
	if err != nil {
		return nil, err
	}

	if c.header == nil {
		return nil, &MalformedFileError{Filename: filename, Reason: "worksheet is empty"}
	}
	if p.MaxRows > 0 && c.count > p.MaxRows {
		return nil, &DatasetTooLargeError{Filename: filename, Limit: p.MaxRows, Rows: c.count}
	}

	schema := buildSchema(c.header, c.width)
	rows := make([]models.Row, len(c.rows))
	for i, cells := range c.rows {
		values := make(map[string]string, len(schema))
		for col, name := range schema {
			values[name] = cellValue(cells, col)
		}
		rows[i] = models.Row{
			Index:     i,
			SourceRow: c.sourceRows[i],
			Values:    values,
		}
		validateRow(&rows[i], schema)
	}

	return &models.Dataset{
		ID:        uuid.New().String(),
		Filename:  filename,
		Format:    format,
		Schema:    schema,
		Rows:      rows,
		CreatedAt: time.Now(),
	}, nil
}

// validateRow tags a row invalid when it cannot produce an identifiable card.
func validateRow(row *models.Row, schema []string) {
	has := make(map[string]bool, len(schema))
	for _, name := range schema {
		has[name] = true
	}

	addIssue := func(column, reason string) {
		row.Issues = append(row.Issues, models.RowIssue{Row: row.SourceRow, Column: column, Reason: reason})
	}
	if !has[models.ColumnID] {
		addIssue(models.ColumnID, "sheet has no ID column")
	} else if row.Value(models.ColumnID) == "" {
		addIssue(models.ColumnID, "ID is empty")
	}
	if !has[models.ColumnName] {
		addIssue(models.ColumnName, "sheet has no Name column")
	} else if row.Value(models.ColumnName) == "" {
		addIssue(models.ColumnName, "Name is empty")
	}
	if !has[models.ColumnPhotoPath] {
		addIssue(models.ColumnPhotoPath, "sheet has no Photo Path column")
	}

	row.Status = models.RowValid
	if len(row.Issues) > 0 {
		row.Status = models.RowInvalid
	}
}

// collector receives sheet rows in order. It keeps the header, skips blank
// rows and stops storing once the row cap is passed but keeps counting.
type collector struct {
	max        int
	header     []string
	rows       [][]string
	sourceRows []int
	count      int
	width      int
}

func (c *collector) add(sourceRow int, cells []string) {
	cells = trimRow(cells)
	if len(cells) == 0 {
		return
	}
	if len(cells) > c.width {
		c.width = len(cells)
	}
	if c.header == nil {
		c.header = cells
		return
	}
	c.count++
	if c.max > 0 && c.count > c.max {
		return
	}
	c.rows = append(c.rows, cells)
	c.sourceRows = append(c.sourceRows, sourceRow)
}
