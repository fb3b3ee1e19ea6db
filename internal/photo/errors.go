package photo

import "fmt"

// FetchError explains why a photo reference could not be turned into an
// image. It never fails a job; the row gets the placeholder instead.
type FetchError struct {
	Ref    string
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("photo %q: %s: %v", e.Ref, e.Reason, e.Err)
	}
	return fmt.Sprintf("photo %q: %s", e.Ref, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// permanentError marks a fetch failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return &permanentError{err: err}
}
