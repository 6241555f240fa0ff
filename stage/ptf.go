package stage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/metadata"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/ptf"
)

const (
	// TypePTFReader reads native point files.
	TypePTFReader = "readers.ptf"
	// TypePTFWriter writes native point files.
	TypePTFWriter = "writers.ptf"
)

// PTFReader implements readers.ptf.
type PTFReader struct {
	Base

	filename string
}

// NewPTFReader returns an unconfigured readers.ptf stage.
func NewPTFReader() *PTFReader {
	return &PTFReader{Base: NewBase(TypePTFReader)}
}

// Configure implements Stage.
func (r *PTFReader) Configure(opts *Options) error {
	if err := r.Base.Configure(opts); err != nil {
		return err
	}
	r.filename = opts.String("filename", "")
	if r.filename == "" {
		return fmt.Errorf("%w: %s requires filename", ErrInvalidOption, TypePTFReader)
	}
	return nil
}

// Run implements Stage.
func (r *PTFReader) Run(ctx context.Context, sc *Context, _ []*pointview.View) ([]*pointview.View, error) {
	f, size, err := sc.OpenFile(ctx, r.filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pr, err := ptf.NewReaderSize(f, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.filename, err)
	}
	pb, err := r.builder(sc, pr, pointview.WithCapacity(int(min(pr.Header().PointCount, uint64(sc.ChunkSize)))))
	if err != nil {
		return nil, err
	}
	if _, err := pr.ReadView(pb); err != nil {
		pb.Discard()
		return nil, fmt.Errorf("%s: %w", r.filename, err)
	}
	v := pb.Build()
	r.record(pr, v.Len())
	return []*pointview.View{v}, nil
}

// Stream implements Source. Chunks follow the file blocks, split further
// when a block holds more than chunkSize points.
func (r *PTFReader) Stream(ctx context.Context, sc *Context, chunkSize int, emit func(*pointview.View) error) error {
	f, size, err := sc.OpenFile(ctx, r.filename)
	if err != nil {
		return err
	}
	defer f.Close()

	pr, err := ptf.NewReaderSize(f, size)
	if err != nil {
		return fmt.Errorf("%s: %w", r.filename, err)
	}
	recSize := pr.Layout().PointSize()
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := pr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", r.filename, err)
		}
		for len(raw) > 0 {
			n := min(len(raw)/recSize, chunkSize)
			pb, err := r.builder(sc, pr, pointview.WithCapacity(n))
			if err != nil {
				return err
			}
			if _, err := pb.AppendRecords(raw[:n*recSize]); err != nil {
				pb.Discard()
				return err
			}
			raw = raw[n*recSize:]
			total += n
			if err := emit(pb.Build()); err != nil {
				return err
			}
		}
	}
	if total == 0 {
		pb, err := r.builder(sc, pr)
		if err != nil {
			return err
		}
		if err := emit(pb.Build()); err != nil {
			return err
		}
	}
	r.record(pr, total)
	return nil
}

func (r *PTFReader) builder(sc *Context, pr *ptf.Reader, opts ...pointview.BuilderOption) (*pointview.Builder, error) {
	pb, err := sc.NewBuilder(pr.Layout(), append([]pointview.BuilderOption{pointview.WithSRS(pr.SRS())}, opts...)...)
	if err != nil {
		return nil, err
	}
	r.applySRS(pb)
	return pb, nil
}

func (r *PTFReader) record(pr *ptf.Reader, count int) {
	h := pr.Header()
	r.Metadata().Set("filename", metadata.String(r.filename))
	r.Metadata().Set("count", metadata.Int(int64(count)))
	r.Metadata().Set("compression", metadata.String(h.Compression.String()))
	r.Metadata().Set("point_size", metadata.Int(int64(h.PointSize)))
	if wkt := pr.SRS().WKT; wkt != "" {
		r.Metadata().Set("srs", metadata.String(wkt))
	}
}

// PTFWriter implements writers.ptf.
type PTFWriter struct {
	Base

	filename    string
	compression ptf.Compression
	blockPoints int

	out File
	w   *ptf.Writer
}

// NewPTFWriter returns an unconfigured writers.ptf stage.
func NewPTFWriter() *PTFWriter {
	return &PTFWriter{Base: NewBase(TypePTFWriter), blockPoints: ptf.DefaultBlockPoints}
}

// Configure implements Stage.
func (w *PTFWriter) Configure(opts *Options) error {
	if err := w.Base.Configure(opts); err != nil {
		return err
	}
	w.filename = opts.String("filename", "")
	if w.filename == "" {
		return fmt.Errorf("%w: %s requires filename", ErrInvalidOption, TypePTFWriter)
	}
	c, err := ptf.ParseCompression(opts.String("compression", "none"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	w.compression = c
	if w.blockPoints, err = opts.Int("block_points", w.blockPoints); err != nil {
		return err
	}
	if w.blockPoints <= 0 {
		return fmt.Errorf("%w: block_points must be positive", ErrInvalidOption)
	}
	return nil
}

// Run implements Stage. Every input view is written to one file with the
// union of the input layouts.
func (w *PTFWriter) Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error) {
	if len(in) == 0 {
		return nil, w.Finish(ctx, sc)
	}
	layouts := make([]*layout.Layout, len(in))
	for i, v := range in {
		layouts[i] = v.Layout()
	}
	if err := w.open(ctx, sc, layout.Merge(layouts...), in[0]); err != nil {
		return nil, err
	}
	for _, v := range in {
		if err := w.writeView(v); err != nil {
			w.Abort()
			return nil, err
		}
	}
	if err := w.Finish(ctx, sc); err != nil {
		return nil, err
	}
	return in, nil
}

// ProcessChunk implements Streamer.
func (w *PTFWriter) ProcessChunk(ctx context.Context, sc *Context, chunk *pointview.View) (*pointview.View, error) {
	if w.w == nil {
		if err := w.open(ctx, sc, chunk.Layout(), chunk); err != nil {
			return nil, err
		}
	}
	if err := w.writeView(chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

// Finish implements Streamer. A writer that saw no points writes nothing.
func (w *PTFWriter) Finish(context.Context, *Context) error {
	if w.w == nil {
		return nil
	}
	if err := w.w.Close(); err != nil {
		w.Abort()
		return err
	}
	count := w.w.Count()
	err := w.out.Close()
	w.w, w.out = nil, nil
	if err != nil {
		return err
	}
	w.Metadata().Set("filename", metadata.String(w.filename))
	w.Metadata().Set("count", metadata.Int(int64(count)))
	w.Metadata().Set("compression", metadata.String(w.compression.String()))
	return nil
}

// Abort implements Aborter. The partial file is discarded.
func (w *PTFWriter) Abort() {
	if w.w == nil {
		return
	}
	w.w.Abort()
	_ = w.out.Abort()
	w.w, w.out = nil, nil
}

func (w *PTFWriter) open(ctx context.Context, sc *Context, l *layout.Layout, first *pointview.View) error {
	ref := first.SRS()
	if !w.SRS.IsEmpty() {
		ref = w.SRS
	}
	out, err := sc.CreateFile(ctx, w.filename)
	if err != nil {
		return err
	}
	opts := []ptf.WriterOption{
		ptf.WithCompression(w.compression),
		ptf.WithSRS(ref),
		ptf.WithBlockPoints(w.blockPoints),
	}
	if sc.Resources != nil {
		opts = append(opts, ptf.WithMemoryReserver(sc.Resources))
	}
	pw, err := ptf.NewWriter(out, l, opts...)
	if err != nil {
		_ = out.Abort()
		return err
	}
	w.out = out
	w.w = pw
	return nil
}

// writeView writes v, filling dimensions v lacks with zeros.
func (w *PTFWriter) writeView(v *pointview.View) error {
	if v.Layout().Equal(w.w.Layout()) {
		return w.w.WriteView(v)
	}
	for _, d := range w.w.Layout().Details() {
		if !v.Layout().Has(d.ID) {
			return w.writePadded(v)
		}
	}
	return w.w.WriteView(v)
}

func (w *PTFWriter) writePadded(v *pointview.View) error {
	pb, err := pointview.NewBuilder(w.w.Layout(), pointview.WithCapacity(v.Len()))
	if err != nil {
		return err
	}
	defer pb.Discard()
	for idx := range v.PointIDs() {
		if _, err := pb.CopyPoint(v, idx); err != nil {
			return err
		}
	}
	padded := pb.Build()
	defer padded.Release()
	return w.w.WriteView(padded)
}
