package layout

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pointflow/dimension"
)

var (
	// ErrDimensionNotInSchema is returned when a dimension is not part of a layout.
	ErrDimensionNotInSchema = errors.New("dimension not in schema")

	// ErrDuplicateDimension is returned when a schema lists a dimension twice.
	ErrDuplicateDimension = errors.New("duplicate dimension")

	// ErrInvalidEncoding is returned when a schema entry has no valid encoding.
	ErrInvalidEncoding = errors.New("invalid encoding")
)

// DimensionNotInSchemaError reports the dimension that failed to resolve.
type DimensionNotInSchemaError struct {
	ID dimension.ID
}

func (e *DimensionNotInSchemaError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDimensionNotInSchema, e.ID)
}

// Is reports whether target is ErrDimensionNotInSchema.
func (e *DimensionNotInSchemaError) Is(target error) bool { return target == ErrDimensionNotInSchema }
