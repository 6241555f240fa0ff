package pointview

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned when a point index is negative or not
	// less than the number of points in a view.
	ErrIndexOutOfRange = errors.New("point index out of range")

	// ErrIteratorExhausted is returned by Iterator.Next past the last view.
	ErrIteratorExhausted = errors.New("iterator exhausted")

	// ErrBuilt is returned when a Builder is used after Build.
	ErrBuilt = errors.New("view already built")

	// ErrPartialRecord is returned when raw record bytes are not a whole
	// number of points.
	ErrPartialRecord = errors.New("partial point record")
)

// IndexOutOfRangeError reports the rejected index and the view length.
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s: index %d, length %d", ErrIndexOutOfRange, e.Index, e.Len)
}

// Is reports whether target is ErrIndexOutOfRange.
func (e *IndexOutOfRangeError) Is(target error) bool { return target == ErrIndexOutOfRange }
