package pointflow

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/internal/engine"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/resource"
)

var (
	// ErrParse is wrapped by every ParseError.
	ErrParse = errors.New("pipeline parse error")

	// ErrIO is wrapped by every IOError.
	ErrIO = errors.New("pipeline io error")

	// ErrExecution is wrapped by every ExecutionError.
	ErrExecution = errors.New("pipeline execution error")

	// ErrEncode is wrapped by every EncodeError.
	ErrEncode = errors.New("pipeline encode error")

	// ErrInvalidState is returned when a Manager method is called in a state
	// that does not allow it, for example Execute before a pipeline is loaded.
	ErrInvalidState = errors.New("invalid manager state")

	// ErrNotStreamable is returned by engine-level streamed runs over a
	// pipeline that has a stage without chunk support.
	ErrNotStreamable = engine.ErrNotStreamable
)

// Errors of the data access layer, re-exported for convenience.
var (
	ErrUnknownDimension     = dimension.ErrUnknownDimension
	ErrDimensionNotInSchema = layout.ErrDimensionNotInSchema
	ErrIndexOutOfRange      = pointview.ErrIndexOutOfRange
	ErrIteratorExhausted    = pointview.ErrIteratorExhausted
	ErrMemoryLimit          = resource.ErrMemoryLimit
)

// ParseError indicates malformed pipeline text.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ParseError struct {
	// Stage is the zero-based position of the offending stage, or -1 when
	// the error concerns the document as a whole.
	Stage int
	Msg   string
	cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrParse, e.Msg)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.cause} }

// IOError indicates that a pipeline file could not be read.
type IOError struct {
	Path  string
	cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrIO, e.Path, e.cause)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.cause} }

// ExecutionError indicates that a stage failed while the pipeline ran.
//
// The original underlying error can be accessed via errors.Unwrap, so
// errors.Is(err, ErrMemoryLimit) holds when a run exceeded its memory limit.
type ExecutionError struct {
	// Stage is the tag of the failing stage. Empty when the failure is not
	// attributable to one stage.
	Stage string
	// Type is the stage type, e.g. readers.text.
	Type  string
	cause error
}

func (e *ExecutionError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %v", ErrExecution, e.cause)
	}
	return fmt.Sprintf("%s: stage %s (%s): %v", ErrExecution, e.Stage, e.Type, e.cause)
}

func (e *ExecutionError) Unwrap() []error { return []error{ErrExecution, e.cause} }

// EncodeError indicates that the configured codec failed to encode one of
// the documents returned by Metadata, Schema or Pipeline.
type EncodeError struct {
	// Document is "pipeline", "metadata" or "schema".
	Document string
	cause    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrEncode, e.Document, e.cause)
}

func (e *EncodeError) Unwrap() []error { return []error{ErrEncode, e.cause} }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pe *engine.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Stage: pe.Index, Msg: pe.Error(), cause: err}
	}

	var ee *engine.EncodeError
	if errors.As(err, &ee) {
		return &EncodeError{Document: ee.Document, cause: ee.Err}
	}

	var se *engine.StageError
	if errors.As(err, &se) {
		return &ExecutionError{Stage: se.Tag, Type: se.Type, cause: se.Err}
	}

	return &ExecutionError{cause: err}
}

func stateError(op string, s State, detail string) error {
	if detail != "" {
		return fmt.Errorf("%w: cannot %s: manager %s", ErrInvalidState, op, detail)
	}
	return fmt.Errorf("%w: cannot %s in state %s", ErrInvalidState, op, s)
}
