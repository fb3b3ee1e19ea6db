package spreadsheet

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

// readXLSX streams the first worksheet so an oversized sheet is never fully
// materialised.
func readXLSX(filename string, data []byte, visit func(sourceRow int, cells []string)) error {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return &MalformedFileError{Filename: filename, Reason: "cannot open workbook", Err: err}
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return &MalformedFileError{Filename: filename, Reason: "no worksheet found"}
	}

	rows, err := file.Rows(sheetName)
	if err != nil {
		return &MalformedFileError{Filename: filename, Reason: "cannot read worksheet " + sheetName, Err: err}
	}
	defer func() { _ = rows.Close() }()

	sourceRow := 0
	for rows.Next() {
		sourceRow++
		cells, err := rows.Columns()
		if err != nil {
			return &MalformedFileError{Filename: filename, Reason: "cannot read worksheet " + sheetName, Err: err}
		}
		visit(sourceRow, cells)
	}
	if err := rows.Error(); err != nil {
		return &MalformedFileError{Filename: filename, Reason: "cannot read worksheet " + sheetName, Err: err}
	}
	return nil
}
