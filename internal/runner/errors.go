package runner

import "fmt"

// TransformError reports an implementation that failed on a file it was given.
type TransformError struct {
	Implementation string
	Path           string
	Err            error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s failed on %s: %v", e.Implementation, e.Path, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// CheckError reports output that did not survive the correctness check.
type CheckError struct {
	Implementation string
	Path           string
	Err            error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("check failed for %s on %s: %v", e.Implementation, e.Path, e.Err)
}

func (e *CheckError) Unwrap() error { return e.Err }
