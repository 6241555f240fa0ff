package dimension

import (
	"errors"
	"fmt"
)

// ErrUnknownDimension is returned when a dimension ID or name is not part of
// the registry.
var ErrUnknownDimension = errors.New("unknown dimension")

// UnknownDimensionError carries the offending ID or name.
//
// It matches ErrUnknownDimension via errors.Is.
type UnknownDimensionError struct {
	ID   ID
	Name string
}

func (e *UnknownDimensionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %q", ErrUnknownDimension, e.Name)
	}
	return fmt.Sprintf("%s: id %d", ErrUnknownDimension, uint16(e.ID))
}

// Is reports whether target is ErrUnknownDimension.
func (e *UnknownDimensionError) Is(target error) bool { return target == ErrUnknownDimension }
