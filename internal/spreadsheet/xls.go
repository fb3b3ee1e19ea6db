package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
)

// readXLS reads the first worksheet of a legacy BIFF workbook. The decoder
// panics on some damaged files, which is reported as a malformed file.
func readXLS(filename string, data []byte, visit func(sourceRow int, cells []string)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &MalformedFileError{Filename: filename, Reason: "cannot decode workbook", Err: fmt.Errorf("%v", r)}
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return &MalformedFileError{Filename: filename, Reason: "cannot open workbook", Err: err}
	}
	if workbook.NumSheets() == 0 {
		return &MalformedFileError{Filename: filename, Reason: "no worksheet found"}
	}
	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return &MalformedFileError{Filename: filename, Reason: "no worksheet found"}
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol()+1)
		for col := row.FirstCol(); col <= row.LastCol(); col++ {
			cells[col] = row.Col(col)
		}
		visit(i+1, cells)
	}
	return nil
}
