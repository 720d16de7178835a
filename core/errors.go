package core

import "fmt"

// DataUnavailableError reports a dataset that is missing, unreadable, or
// malformed at load time. Loading is all-or-nothing, so this error is fatal
// for the process: no page can be served without all datasets present.
type DataUnavailableError struct {
	Dataset string
	Err     error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("dataset %q unavailable: %v", e.Dataset, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// OutOfRangeError reports a value that falls outside every declared bucket
// during bucketing. Unlike DataUnavailableError, callers may recover from it.
type OutOfRangeError struct {
	Column string
	Value  float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("value %v in column %q outside all declared buckets", e.Value, e.Column)
}
