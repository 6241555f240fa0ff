package ptf

import (
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"github.com/hupe1980/pointflow/internal/conv"
	pfhash "github.com/hupe1980/pointflow/internal/hash"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/srs"
)

// MemoryReserver accounts for blocks a Writer keeps in memory.
type MemoryReserver interface {
	ReserveMemory(amount int64) error
	ReleaseMemory(amount int64)
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression sets the record block compression.
func WithCompression(c Compression) WriterOption {
	return func(w *Writer) { w.compression = c }
}

// WithSRS records ref in the file.
func WithSRS(ref srs.SpatialReference) WriterOption {
	return func(w *Writer) { w.srs = ref }
}

// WithBlockPoints sets the number of points per block.
func WithBlockPoints(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.blockPoints = n
		}
	}
}

// WithMemoryReserver accounts blocks held until Close against r.
func WithMemoryReserver(r MemoryReserver) WriterOption {
	return func(w *Writer) { w.reserver = r }
}

// Writer encodes points with a fixed layout.
//
// When the destination is an io.Seeker, blocks are written as they fill up
// and Close patches the header in place. Otherwise the compressed blocks are
// kept in memory, accounted against the memory reserver, and Close writes
// the whole file.
type Writer struct {
	w           io.Writer
	seeker      io.Seeker
	start       int64
	layout      *layout.Layout
	srs         srs.SpatialReference
	compression Compression
	blockPoints int
	reserver    MemoryReserver
	reserved    int64

	crc     hash.Hash32
	prefix  []byte
	pending []byte
	frame   []byte
	body    []byte
	count   uint64
	blocks  uint32
	closed  bool
}

// NewWriter returns a Writer producing a file with layout l. On a seekable
// destination a placeholder header is written immediately.
func NewWriter(w io.Writer, l *layout.Layout, opts ...WriterOption) (*Writer, error) {
	pw := &Writer{
		w:           w,
		layout:      l,
		compression: CompressionNone,
		blockPoints: DefaultBlockPoints,
		crc:         pfhash.NewCRC32C(),
	}
	for _, opt := range opts {
		opt(pw)
	}
	if !pw.compression.Valid() {
		return nil, fmt.Errorf("ptf: unknown compression %d", pw.compression)
	}
	if _, err := conv.IntToUint32(l.PointSize()); err != nil {
		return nil, err
	}
	if _, err := conv.IntToUint32(pw.blockPoints); err != nil {
		return nil, err
	}
	if _, err := conv.IntToUint32(len(pw.srs.WKT)); err != nil {
		return nil, err
	}
	if _, err := conv.IntToUint32(len(pw.srs.PROJ4)); err != nil {
		return nil, err
	}

	pw.prefix = make([]byte, 0, l.DimensionCount()*dimEntrySize+len(pw.srs.WKT)+len(pw.srs.PROJ4))
	pw.prefix = append(pw.prefix, encodeDimTable(l)...)
	pw.prefix = append(pw.prefix, pw.srs.WKT...)
	pw.prefix = append(pw.prefix, pw.srs.PROJ4...)
	_, _ = pw.crc.Write(pw.prefix)

	if s, ok := w.(io.Seeker); ok {
		start, err := s.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		pw.seeker, pw.start = s, start
		var placeholder [HeaderSize]byte
		if _, err := w.Write(placeholder[:]); err != nil {
			return nil, err
		}
		if _, err := w.Write(pw.prefix); err != nil {
			return nil, err
		}
	}
	return pw, nil
}

// Layout returns the layout of the file being written.
func (w *Writer) Layout() *layout.Layout { return w.layout }

// Count returns the number of points written so far.
func (w *Writer) Count() uint64 { return w.count }

// Buffered returns the number of compressed bytes held in memory.
func (w *Writer) Buffered() int { return len(w.body) }

// WriteRecords appends raw point records in the writer's layout.
func (w *Writer) WriteRecords(raw []byte) error {
	if w.closed {
		return ErrClosed
	}
	size := w.layout.PointSize()
	if size == 0 || len(raw)%size != 0 {
		return ErrRecordSize
	}
	blockBytes := w.blockPoints * size
	for len(raw) > 0 {
		n := min(blockBytes-len(w.pending), len(raw))
		w.pending = append(w.pending, raw[:n]...)
		raw = raw[n:]
		if len(w.pending) == blockBytes {
			if err := w.flushBlock(); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteView appends every point of v. Points are converted to the writer's
// layout when v's layout differs; every writer dimension must exist in v.
func (w *Writer) WriteView(v *pointview.View) error {
	if v.Layout().Equal(w.layout) {
		return w.WriteRecords(v.Bytes())
	}
	raw, err := v.PackedPoints(w.layout.Types())
	if err != nil {
		return err
	}
	return w.WriteRecords(raw)
}

func (w *Writer) flushBlock() error {
	if len(w.pending) == 0 {
		return nil
	}
	frame, err := appendBlock(w.frame[:0], w.pending, w.compression)
	if err != nil {
		return err
	}
	w.frame = frame

	if w.seeker != nil {
		if _, err := w.w.Write(frame); err != nil {
			return err
		}
	} else {
		if w.reserver != nil {
			if err := w.reserver.ReserveMemory(int64(len(frame))); err != nil {
				return err
			}
			w.reserved += int64(len(frame))
		}
		w.body = append(w.body, frame...)
	}
	_, _ = w.crc.Write(frame)
	w.count += uint64(len(w.pending) / w.layout.PointSize())
	w.blocks++
	w.pending = w.pending[:0]
	return nil
}

func (w *Writer) header() ([]byte, error) {
	wktLen, _ := conv.IntToUint32(len(w.srs.WKT))
	projLen, _ := conv.IntToUint32(len(w.srs.PROJ4))
	dimCount, _ := conv.IntToUint32(w.layout.DimensionCount())
	pointSize, _ := conv.IntToUint32(w.layout.PointSize())
	blockPoints, _ := conv.IntToUint32(w.blockPoints)

	h := Header{
		Magic:       FormatMagic,
		Version:     FormatVersion,
		Compression: w.compression,
		DimCount:    dimCount,
		PointSize:   pointSize,
		PointCount:  w.count,
		BlockPoints: blockPoints,
		BlockCount:  w.blocks,
		WKTLen:      wktLen,
		PROJ4Len:    projLen,
	}
	return h.MarshalBinary()
}

// Close completes the file on the underlying writer. It does not close it.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	defer w.release()
	if err := w.flushBlock(); err != nil {
		w.closed = true
		return err
	}
	w.closed = true

	hdr, err := w.header()
	if err != nil {
		return err
	}
	var trailer [trailerSize]byte
	binary.LittleEndian.PutUint32(trailer[:], w.crc.Sum32())

	if w.seeker != nil {
		if _, err := w.w.Write(trailer[:]); err != nil {
			return err
		}
		end, err := w.seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		if _, err := w.seeker.Seek(w.start, io.SeekStart); err != nil {
			return err
		}
		if _, err := w.w.Write(hdr); err != nil {
			return err
		}
		_, err = w.seeker.Seek(end, io.SeekStart)
		return err
	}

	for _, b := range [][]byte{hdr, w.prefix, w.body, trailer[:]} {
		if _, err := w.w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

// Abort drops buffered blocks without writing them. Bytes already written
// to a seekable destination stay there; discarding them is up to the owner
// of the destination.
func (w *Writer) Abort() {
	w.closed = true
	w.release()
}

func (w *Writer) release() {
	if w.reserver != nil && w.reserved > 0 {
		w.reserver.ReleaseMemory(w.reserved)
	}
	w.reserved = 0
	w.body = nil
	w.pending = nil
	w.frame = nil
}
