package stage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/metadata"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/srs"
)

const (
	// TypeArrowReader reads Arrow IPC files.
	TypeArrowReader = "readers.arrow"
	// TypeArrowWriter writes Arrow IPC files.
	TypeArrowWriter = "writers.arrow"
)

// Schema metadata keys holding the spatial reference.
const (
	arrowMetaWKT   = "pointflow.wkt"
	arrowMetaPROJ4 = "pointflow.proj4"
)

func arrowType(enc dimension.Encoding) arrow.DataType {
	switch enc {
	case dimension.Signed8:
		return arrow.PrimitiveTypes.Int8
	case dimension.Signed16:
		return arrow.PrimitiveTypes.Int16
	case dimension.Signed32:
		return arrow.PrimitiveTypes.Int32
	case dimension.Signed64:
		return arrow.PrimitiveTypes.Int64
	case dimension.Unsigned8:
		return arrow.PrimitiveTypes.Uint8
	case dimension.Unsigned16:
		return arrow.PrimitiveTypes.Uint16
	case dimension.Unsigned32:
		return arrow.PrimitiveTypes.Uint32
	case dimension.Unsigned64:
		return arrow.PrimitiveTypes.Uint64
	case dimension.Float:
		return arrow.PrimitiveTypes.Float32
	default:
		return arrow.PrimitiveTypes.Float64
	}
}

func encodingOf(t arrow.DataType) (dimension.Encoding, bool) {
	switch t.ID() {
	case arrow.INT8:
		return dimension.Signed8, true
	case arrow.INT16:
		return dimension.Signed16, true
	case arrow.INT32:
		return dimension.Signed32, true
	case arrow.INT64:
		return dimension.Signed64, true
	case arrow.UINT8:
		return dimension.Unsigned8, true
	case arrow.UINT16:
		return dimension.Unsigned16, true
	case arrow.UINT32:
		return dimension.Unsigned32, true
	case arrow.UINT64:
		return dimension.Unsigned64, true
	case arrow.FLOAT32:
		return dimension.Float, true
	case arrow.FLOAT64:
		return dimension.Double, true
	}
	return dimension.None, false
}

// ArrowReader implements readers.arrow. Numeric columns named after a known
// dimension become that dimension; other columns are skipped.
type ArrowReader struct {
	Base

	filename string
}

// NewArrowReader returns an unconfigured readers.arrow stage.
func NewArrowReader() *ArrowReader {
	return &ArrowReader{Base: NewBase(TypeArrowReader)}
}

// Configure implements Stage.
func (r *ArrowReader) Configure(opts *Options) error {
	if err := r.Base.Configure(opts); err != nil {
		return err
	}
	r.filename = opts.String("filename", "")
	if r.filename == "" {
		return fmt.Errorf("%w: %s requires filename", ErrInvalidOption, TypeArrowReader)
	}
	return nil
}

type arrowColumn struct {
	index int
	id    dimension.ID
}

// Run implements Stage.
func (r *ArrowReader) Run(ctx context.Context, sc *Context, _ []*pointview.View) ([]*pointview.View, error) {
	data, err := sc.ReadFile(ctx, r.filename)
	if err != nil {
		return nil, err
	}
	fr, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.filename, err)
	}
	defer fr.Close()

	schema := fr.Schema()
	var (
		types   []dimension.Type
		columns []arrowColumn
	)
	for i, f := range schema.Fields() {
		enc, ok := encodingOf(f.Type)
		if !ok {
			sc.Logger.Debug("skipping column", slog.String("column", f.Name), slog.String("type", f.Type.String()))
			continue
		}
		id, err := dimension.ByName(f.Name)
		if err != nil {
			sc.Logger.Debug("skipping column", slog.String("column", f.Name), slog.Any("error", err))
			continue
		}
		types = append(types, dimension.Type{ID: id, Encoding: enc})
		columns = append(columns, arrowColumn{index: i, id: id})
	}
	l, err := layout.New(types...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.filename, err)
	}

	var ref srs.SpatialReference
	if md := schema.Metadata(); md.Len() > 0 {
		if i := md.FindKey(arrowMetaWKT); i >= 0 {
			ref.WKT = md.Values()[i]
		}
		if i := md.FindKey(arrowMetaPROJ4); i >= 0 {
			ref.PROJ4 = md.Values()[i]
		}
	}

	pb, err := sc.NewBuilder(l, pointview.WithSRS(ref))
	if err != nil {
		return nil, err
	}
	r.applySRS(pb)
	for i := 0; i < fr.NumRecords(); i++ {
		if err := ctx.Err(); err != nil {
			pb.Discard()
			return nil, err
		}
		rec, err := fr.Record(i)
		if err != nil {
			pb.Discard()
			return nil, fmt.Errorf("%s: batch %d: %w", r.filename, i, err)
		}
		if err := appendArrowRecord(pb, rec, columns); err != nil {
			pb.Discard()
			return nil, fmt.Errorf("%s: batch %d: %w", r.filename, i, err)
		}
	}
	v := pb.Build()
	r.Metadata().Set("filename", metadata.String(r.filename))
	r.Metadata().Set("count", metadata.Int(int64(v.Len())))
	r.Metadata().Set("batches", metadata.Int(int64(fr.NumRecords())))
	return []*pointview.View{v}, nil
}

type valueArray[T pointview.Number] interface {
	Value(i int) T
	IsNull(i int) bool
}

func appendArrowRecord(pb *pointview.Builder, rec arrow.Record, columns []arrowColumn) error {
	rows := int(rec.NumRows())
	first := pb.Len()
	for range rows {
		if _, err := pb.AppendPoint(); err != nil {
			return err
		}
	}
	for _, c := range columns {
		var err error
		switch col := rec.Column(c.index).(type) {
		case *array.Int8:
			err = copyArrowColumn[int8](pb, c.id, first, rows, col)
		case *array.Int16:
			err = copyArrowColumn[int16](pb, c.id, first, rows, col)
		case *array.Int32:
			err = copyArrowColumn[int32](pb, c.id, first, rows, col)
		case *array.Int64:
			err = copyArrowColumn[int64](pb, c.id, first, rows, col)
		case *array.Uint8:
			err = copyArrowColumn[uint8](pb, c.id, first, rows, col)
		case *array.Uint16:
			err = copyArrowColumn[uint16](pb, c.id, first, rows, col)
		case *array.Uint32:
			err = copyArrowColumn[uint32](pb, c.id, first, rows, col)
		case *array.Uint64:
			err = copyArrowColumn[uint64](pb, c.id, first, rows, col)
		case *array.Float32:
			err = copyArrowColumn[float32](pb, c.id, first, rows, col)
		case *array.Float64:
			err = copyArrowColumn[float64](pb, c.id, first, rows, col)
		default:
			err = fmt.Errorf("column %s has unsupported type %s", c.id, col.DataType())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// copyArrowColumn stores rows values of col. Null values stay zero.
func copyArrowColumn[T pointview.Number](pb *pointview.Builder, id dimension.ID, first, rows int, col valueArray[T]) error {
	for i := range rows {
		if col.IsNull(i) {
			continue
		}
		if err := pointview.SetField(pb, id, first+i, col.Value(i)); err != nil {
			return err
		}
	}
	return nil
}

// ArrowWriter implements writers.arrow. Views are written as record batches
// of at most the run chunk size with the union of the input layouts.
type ArrowWriter struct {
	Base

	filename string
}

// NewArrowWriter returns an unconfigured writers.arrow stage.
func NewArrowWriter() *ArrowWriter {
	return &ArrowWriter{Base: NewBase(TypeArrowWriter)}
}

// Configure implements Stage.
func (w *ArrowWriter) Configure(opts *Options) error {
	if err := w.Base.Configure(opts); err != nil {
		return err
	}
	w.filename = opts.String("filename", "")
	if w.filename == "" {
		return fmt.Errorf("%w: %s requires filename", ErrInvalidOption, TypeArrowWriter)
	}
	return nil
}

// Run implements Stage.
func (w *ArrowWriter) Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error) {
	layouts := make([]*layout.Layout, len(in))
	ref := w.SRS
	for i, v := range in {
		layouts[i] = v.Layout()
		if ref.IsEmpty() {
			ref = v.SRS()
		}
	}
	l := layout.Merge(layouts...)

	fields := make([]arrow.Field, 0, l.DimensionCount())
	for _, d := range l.Details() {
		fields = append(fields, arrow.Field{Name: d.ID.Name(), Type: arrowType(d.Encoding)})
	}
	md := arrow.NewMetadata([]string{arrowMetaWKT, arrowMetaPROJ4}, []string{ref.WKT, ref.PROJ4})
	schema := arrow.NewSchema(fields, &md)

	out, err := sc.CreateFile(ctx, w.filename)
	if err != nil {
		return nil, err
	}
	mem := memory.DefaultAllocator
	fw, err := ipc.NewFileWriter(out, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		_ = out.Abort()
		return nil, err
	}

	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()

	written, batches := 0, 0
	for _, v := range in {
		for start := 0; start < v.Len(); start += sc.ChunkSize {
			end := min(start+sc.ChunkSize, v.Len())
			if err := fillArrowRecord(rb, l, v, start, end); err != nil {
				_ = out.Abort()
				return nil, err
			}
			rec := rb.NewRecord()
			err := fw.Write(rec)
			rec.Release()
			if err != nil {
				_ = out.Abort()
				return nil, fmt.Errorf("%s: %w", w.filename, err)
			}
			written += end - start
			batches++
		}
	}
	if err := fw.Close(); err != nil {
		_ = out.Abort()
		return nil, fmt.Errorf("%s: %w", w.filename, err)
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	w.Metadata().Set("filename", metadata.String(w.filename))
	w.Metadata().Set("count", metadata.Int(int64(written)))
	w.Metadata().Set("batches", metadata.Int(int64(batches)))
	return in, nil
}

type appender[T pointview.Number] interface {
	Append(v T)
}

// fillArrowRecord appends points [start, end) of v to rb. Dimensions v
// lacks are written as zero.
func fillArrowRecord(rb *array.RecordBuilder, l *layout.Layout, v *pointview.View, start, end int) error {
	for i, d := range l.Details() {
		present := v.Layout().Has(d.ID)
		var err error
		switch fb := rb.Field(i).(type) {
		case *array.Int8Builder:
			err = appendArrowColumn[int8](fb, v, d.ID, present, start, end)
		case *array.Int16Builder:
			err = appendArrowColumn[int16](fb, v, d.ID, present, start, end)
		case *array.Int32Builder:
			err = appendArrowColumn[int32](fb, v, d.ID, present, start, end)
		case *array.Int64Builder:
			err = appendArrowColumn[int64](fb, v, d.ID, present, start, end)
		case *array.Uint8Builder:
			err = appendArrowColumn[uint8](fb, v, d.ID, present, start, end)
		case *array.Uint16Builder:
			err = appendArrowColumn[uint16](fb, v, d.ID, present, start, end)
		case *array.Uint32Builder:
			err = appendArrowColumn[uint32](fb, v, d.ID, present, start, end)
		case *array.Uint64Builder:
			err = appendArrowColumn[uint64](fb, v, d.ID, present, start, end)
		case *array.Float32Builder:
			err = appendArrowColumn[float32](fb, v, d.ID, present, start, end)
		case *array.Float64Builder:
			err = appendArrowColumn[float64](fb, v, d.ID, present, start, end)
		default:
			err = fmt.Errorf("unsupported arrow builder %T", fb)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func appendArrowColumn[T pointview.Number](b appender[T], v *pointview.View, id dimension.ID, present bool, start, end int) error {
	for idx := start; idx < end; idx++ {
		var x T
		if present {
			var err error
			if x, err = pointview.Field[T](v, id, idx); err != nil {
				return err
			}
		}
		b.Append(x)
	}
	return nil
}
