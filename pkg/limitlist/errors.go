package limitlist

import (
	"fmt"
	"strings"
)

// FileError is a failure to open the backing limit file
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("open %s for %s: %v", e.Path, e.Op, e.Err)
}

func (e FileError) Unwrap() error { return e.Err }

// WriteError is a failure while writing regenerated limit text
type WriteError struct {
	Path string
	Err  error
}

func (e WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e WriteError) Unwrap() error { return e.Err }

// DatasetOpenError is a failure to select a dataset needed by the list
type DatasetOpenError struct {
	Err error
}

func (e DatasetOpenError) Error() string {
	return fmt.Sprintf("open datasets: %v", e.Err)
}

func (e DatasetOpenError) Unwrap() error { return e.Err }

// DatasetCloseError collects failures to release datasets
type DatasetCloseError struct {
	Errs []error
}

func (e DatasetCloseError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("close datasets: %s", strings.Join(msgs, "; "))
}

func (e DatasetCloseError) Unwrap() []error { return e.Errs }
