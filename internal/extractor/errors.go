package extractor

import "fmt"

// NotFoundError reports an input container path that does not exist.
// It is fatal for that container only; remaining inputs still run.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("scan container not found at path: %s", e.Path)
}

// ScanReadError reports a scan whose point or attribute stream could
// not be read or is internally inconsistent. It is fatal for that scan
// only; a partially written output file is left in place.
type ScanReadError struct {
	Path      string
	ScanIndex int
	ScanName  string
	Err       error
}

func (e *ScanReadError) Error() string {
	return fmt.Sprintf("cannot read scan %d [%s] of %s: %v", e.ScanIndex, e.ScanName, e.Path, e.Err)
}

func (e *ScanReadError) Unwrap() error {
	return e.Err
}

// InvalidParameterError reports a non-positive radius or spacing.
// Parameters are rejected before any container is opened.
type InvalidParameterError struct {
	Name  string
	Value float64
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("parameter %s must be a positive number, got %v", e.Name, e.Value)
}
