package spreadsheet

import "fmt"

// MalformedFileError means no readable worksheet could be found.
type MalformedFileError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *MalformedFileError) Error() string {
	msg := fmt.Sprintf("malformed spreadsheet %q: %s", e.Filename, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedFileError) Unwrap() error {
	return e.Err
}

// DatasetTooLargeError means the sheet holds more data rows than allowed.
type DatasetTooLargeError struct {
	Filename string
	Limit    int
	Rows     int
}

func (e *DatasetTooLargeError) Error() string {
	return fmt.Sprintf("spreadsheet %q has %d data rows, limit is %d", e.Filename, e.Rows, e.Limit)
}
