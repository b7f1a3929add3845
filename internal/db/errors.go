package db

import "fmt"

// FetchError reports a failed store query.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func fetchErr(op string, err error) error {
	return &FetchError{Op: op, Err: err}
}
