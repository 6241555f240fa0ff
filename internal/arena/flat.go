package arena

import (
	"errors"
	"fmt"
)

// ErrInvalidRecordSize is returned for a negative record size.
var ErrInvalidRecordSize = errors.New("arena: invalid record size")

// MemoryReserver accounts for arena growth.
//
// ReserveMemory must not block; it returns an error when the reservation
// would exceed a limit.
type MemoryReserver interface {
	ReserveMemory(amount int64) error
	ReleaseMemory(amount int64)
}

const minGrowRecords = 16

// Records is a growable, contiguous arena of fixed-size records.
type Records struct {
	recordSize int
	buf        []byte
	n          int
	reserved   int64
	reserver   MemoryReserver
}

// Option configures Records.
type Option func(*Records)

// WithMemoryReserver accounts every growth of the arena against r.
func WithMemoryReserver(r MemoryReserver) Option {
	return func(a *Records) {
		a.reserver = r
	}
}

// NewRecords creates an arena of records of recordSize bytes with room for
// capacity records.
func NewRecords(recordSize, capacity int, opts ...Option) (*Records, error) {
	if recordSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRecordSize, recordSize)
	}
	a := &Records{recordSize: recordSize}
	for _, opt := range opts {
		opt(a)
	}
	if capacity > 0 {
		if err := a.grow(capacity); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// RecordSize returns the byte size of one record.
func (a *Records) RecordSize() int { return a.recordSize }

// Len returns the number of allocated records.
func (a *Records) Len() int { return a.n }

// Cap returns the number of records that fit without growing.
func (a *Records) Cap() int {
	if a.recordSize == 0 {
		return a.n
	}
	return len(a.buf) / a.recordSize
}

// Reserved returns the number of bytes currently accounted to the reserver.
func (a *Records) Reserved() int64 { return a.reserved }

// Alloc appends a zeroed record and returns its index and bytes.
func (a *Records) Alloc() (int, []byte, error) {
	if a.recordSize > 0 && a.n == a.Cap() {
		if err := a.grow(max(a.n*2, minGrowRecords)); err != nil {
			return 0, nil, err
		}
	}
	idx := a.n
	a.n++
	return idx, a.Record(idx), nil
}

// Record returns the bytes of record idx. The slice aliases the arena and is
// invalidated by the next growth.
func (a *Records) Record(idx int) []byte {
	off := idx * a.recordSize
	return a.buf[off : off+a.recordSize : off+a.recordSize]
}

// Bytes returns the used portion of the arena.
func (a *Records) Bytes() []byte {
	return a.buf[:a.n*a.recordSize]
}

// Free releases the arena memory and its reservation. The arena must not be
// used afterwards.
func (a *Records) Free() {
	if a.reserver != nil && a.reserved > 0 {
		a.reserver.ReleaseMemory(a.reserved)
	}
	a.reserved = 0
	a.buf = nil
	a.n = 0
}

func (a *Records) grow(capacity int) error {
	if a.recordSize == 0 {
		return nil
	}
	want := capacity * a.recordSize
	extra := int64(want - len(a.buf))
	if extra <= 0 {
		return nil
	}
	if a.reserver != nil {
		if err := a.reserver.ReserveMemory(extra); err != nil {
			return err
		}
	}
	a.reserved += extra

	buf := make([]byte, want)
	copy(buf, a.buf[:a.n*a.recordSize])
	a.buf = buf
	return nil
}
