package xldash

import (
	"errors"
	"fmt"
)

// StepError reports the pipeline step that failed. Steps flushed before it
// stay applied.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("dashboard step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ErrInvalidLayout is returned by Run, Inspect, Audit and SampleWorkbook
// when the layout has error-severity validation issues. Nothing is read
// or written.
var ErrInvalidLayout = errors.New("invalid layout")
