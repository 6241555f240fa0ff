package engine

import (
	"errors"
	"fmt"
)

// ErrNotStreamable is returned by ExecuteStreamed when a stage of the
// pipeline cannot process chunks.
var ErrNotStreamable = errors.New("pipeline is not streamable")

// ParseError reports an invalid pipeline description.
type ParseError struct {
	// Index is the position of the offending stage, or -1 when the error
	// concerns the document as a whole.
	Index int
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if e.Index >= 0 {
		msg = fmt.Sprintf("stage %d: %s", e.Index, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrorf(index int, err error, format string, args ...any) *ParseError {
	return &ParseError{Index: index, Msg: fmt.Sprintf(format, args...), Err: err}
}

// EncodeError reports a document that could not be encoded.
type EncodeError struct {
	// Document names the document: "pipeline", "metadata" or "schema".
	Document string
	Err      error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Document, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// StageError reports the failure of one stage during execution.
type StageError struct {
	Tag  string
	Type string
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Tag, e.Type, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageError(n *Node, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Tag: n.Tag, Type: n.Type, Err: err}
}
