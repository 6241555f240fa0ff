package stage

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/metadata"
	"github.com/hupe1980/pointflow/pointview"
)

const (
	// TypeTextReader reads delimited text with a header of dimension names.
	TypeTextReader = "readers.text"
	// TypeTextWriter writes delimited text.
	TypeTextWriter = "writers.text"
)

// TextReader implements readers.text. Every column is stored as Double.
type TextReader struct {
	Base

	filename  string
	header    string
	separator rune
	skip      int
}

// NewTextReader returns an unconfigured readers.text stage.
func NewTextReader() *TextReader {
	return &TextReader{Base: NewBase(TypeTextReader)}
}

// Configure implements Stage.
func (r *TextReader) Configure(opts *Options) error {
	if err := r.Base.Configure(opts); err != nil {
		return err
	}
	r.filename = opts.String("filename", "")
	if r.filename == "" {
		return fmt.Errorf("%w: %s requires filename", ErrInvalidOption, TypeTextReader)
	}
	r.header = opts.String("header", "")
	if sep, ok := opts.Get("separator"); ok {
		sr, err := parseDelimiter("separator", sep)
		if err != nil {
			return err
		}
		r.separator = sr
	}
	var err error
	if r.skip, err = opts.Int("skip", 0); err != nil {
		return err
	}
	return nil
}

// Run implements Stage.
func (r *TextReader) Run(ctx context.Context, sc *Context, _ []*pointview.View) ([]*pointview.View, error) {
	var out *pointview.View
	err := r.read(ctx, sc, math.MaxInt, func(v *pointview.View) error {
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []*pointview.View{out}, nil
}

// Stream implements Source.
func (r *TextReader) Stream(ctx context.Context, sc *Context, chunkSize int, emit func(*pointview.View) error) error {
	return r.read(ctx, sc, chunkSize, emit)
}

func (r *TextReader) read(ctx context.Context, sc *Context, chunkSize int, emit func(*pointview.View) error) error {
	f, _, err := sc.OpenFile(ctx, r.filename)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for range r.skip {
		if _, err := br.ReadString('\n'); err != nil {
			return fmt.Errorf("%s: skip: %w", r.filename, err)
		}
	}
	headerLine := r.header
	if headerLine == "" {
		line, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return fmt.Errorf("%s: read header: %w", r.filename, err)
		}
		headerLine = strings.TrimRight(line, "\r\n")
	}
	sep := r.separator
	if sep == 0 {
		sep = detectSeparator(headerLine)
	}
	names, err := splitHeader(headerLine, sep)
	if err != nil {
		return fmt.Errorf("%s: header: %w", r.filename, err)
	}
	types := make([]dimension.Type, len(names))
	for i, name := range names {
		id, err := dimension.ByName(name)
		if err != nil {
			return fmt.Errorf("%s: column %q: %w", r.filename, name, err)
		}
		types[i] = dimension.Type{ID: id, Encoding: dimension.Double}
	}
	l, err := layout.New(types...)
	if err != nil {
		return fmt.Errorf("%s: %w", r.filename, err)
	}

	cr := csv.NewReader(br)
	cr.Comma = sep
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(names)
	cr.ReuseRecord = true

	total := 0
	for done := false; !done; {
		if err := ctx.Err(); err != nil {
			return err
		}
		pb, err := sc.NewBuilder(l)
		if err != nil {
			return err
		}
		r.applySRS(pb)
		for pb.Len() < chunkSize {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				done = true
				break
			}
			if err != nil {
				pb.Discard()
				return fmt.Errorf("%s: %w", r.filename, err)
			}
			idx, err := pb.AppendPoint()
			if err != nil {
				pb.Discard()
				return err
			}
			for i, field := range rec {
				x, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
				if err != nil {
					pb.Discard()
					line, _ := cr.FieldPos(i)
					return fmt.Errorf("%s:%d: column %s: %w", r.filename, line, names[i], err)
				}
				_ = pb.SetFloat64(types[i].ID, idx, x)
			}
		}
		if done && pb.Len() == 0 && total > 0 {
			pb.Discard()
			break
		}
		total += pb.Len()
		if err := emit(pb.Build()); err != nil {
			return err
		}
	}
	r.Metadata().Set("filename", metadata.String(r.filename))
	r.Metadata().Set("count", metadata.Int(int64(total)))
	return nil
}

func detectSeparator(header string) rune {
	switch {
	case strings.ContainsRune(header, ','):
		return ','
	case strings.ContainsRune(header, '\t'):
		return '\t'
	case strings.ContainsRune(header, ';'):
		return ';'
	default:
		return ' '
	}
}

func splitHeader(line string, sep rune) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = sep
	cr.TrimLeadingSpace = true
	rec, err := cr.Read()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rec))
	for _, name := range rec {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, errors.New("no columns")
	}
	return names, nil
}

func parseDelimiter(name, value string) (rune, error) {
	switch value {
	case `\t`, "tab":
		return '\t', nil
	case "space":
		return ' ', nil
	}
	sr, size := utf8.DecodeRuneInString(value)
	if sr == utf8.RuneError || size != len(value) || sr == '"' || sr == '\r' || sr == '\n' {
		return 0, fmt.Errorf("%w: %s=%q must be a single character", ErrInvalidOption, name, value)
	}
	return sr, nil
}

// TextWriter implements writers.text.
type TextWriter struct {
	Base

	filename        string
	order           []dimension.ID
	keepUnspecified bool
	precision       int
	delimiter       rune
	writeHeader     bool

	out     File
	w       *csv.Writer
	columns []layout.Detail
	record  []string
	count   int
}

// NewTextWriter returns an unconfigured writers.text stage.
func NewTextWriter() *TextWriter {
	return &TextWriter{
		Base:            NewBase(TypeTextWriter),
		precision:       3,
		delimiter:       ',',
		writeHeader:     true,
		keepUnspecified: true,
	}
}

// Configure implements Stage.
func (w *TextWriter) Configure(opts *Options) error {
	if err := w.Base.Configure(opts); err != nil {
		return err
	}
	w.filename = opts.String("filename", "")
	if w.filename == "" {
		return fmt.Errorf("%w: %s requires filename", ErrInvalidOption, TypeTextWriter)
	}
	if order, ok := opts.Get("order"); ok {
		for _, name := range strings.Split(order, ",") {
			id, err := dimension.ByName(strings.TrimSpace(name))
			if err != nil {
				return fmt.Errorf("%w: order: %v", ErrInvalidOption, err)
			}
			w.order = append(w.order, id)
		}
		// An explicit order drops the other dimensions unless asked otherwise.
		w.keepUnspecified = false
	}
	var err error
	if w.keepUnspecified, err = opts.Bool("keep_unspecified", w.keepUnspecified); err != nil {
		return err
	}
	if w.precision, err = opts.Int("precision", w.precision); err != nil {
		return err
	}
	if w.precision < 0 {
		return fmt.Errorf("%w: precision must not be negative", ErrInvalidOption)
	}
	if d, ok := opts.Get("delimiter"); ok {
		if w.delimiter, err = parseDelimiter("delimiter", d); err != nil {
			return err
		}
	}
	if w.writeHeader, err = opts.Bool("write_header", true); err != nil {
		return err
	}
	return nil
}

// Run implements Stage. It writes every input view to one file and passes
// the views on.
func (w *TextWriter) Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error) {
	layouts := make([]*layout.Layout, len(in))
	for i, v := range in {
		layouts[i] = v.Layout()
	}
	if err := w.open(ctx, sc, layout.Merge(layouts...)); err != nil {
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
func (w *TextWriter) ProcessChunk(ctx context.Context, sc *Context, chunk *pointview.View) (*pointview.View, error) {
	if w.out == nil {
		if err := w.open(ctx, sc, chunk.Layout()); err != nil {
			return nil, err
		}
	}
	if err := w.writeView(chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

// Finish implements Streamer.
func (w *TextWriter) Finish(ctx context.Context, sc *Context) error {
	if w.out == nil {
		// Nothing was streamed; still produce the file.
		f, err := sc.CreateFile(ctx, w.filename)
		if err != nil {
			return err
		}
		return f.Close()
	}
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		w.Abort()
		return err
	}
	err := w.out.Close()
	w.out = nil
	if err != nil {
		return err
	}
	w.Metadata().Set("filename", metadata.String(w.filename))
	w.Metadata().Set("count", metadata.Int(int64(w.count)))
	return nil
}

// Abort implements Aborter. The partial file is discarded.
func (w *TextWriter) Abort() {
	if w.out == nil {
		return
	}
	_ = w.out.Abort()
	w.out = nil
}

func (w *TextWriter) open(ctx context.Context, sc *Context, l *layout.Layout) error {
	w.columns = w.columns[:0]
	seen := make(map[dimension.ID]bool)
	for _, id := range w.order {
		d, err := l.Resolve(id)
		if err != nil {
			return fmt.Errorf("%s: order: %w", TypeTextWriter, err)
		}
		w.columns = append(w.columns, d)
		seen[id] = true
	}
	if w.keepUnspecified {
		for _, d := range l.Details() {
			if !seen[d.ID] {
				w.columns = append(w.columns, d)
			}
		}
	}
	out, err := sc.CreateFile(ctx, w.filename)
	if err != nil {
		return err
	}
	w.out = out
	w.w = csv.NewWriter(out)
	w.w.Comma = w.delimiter
	w.record = make([]string, len(w.columns))
	if w.writeHeader {
		for i, d := range w.columns {
			w.record[i] = d.ID.Name()
		}
		if err := w.w.Write(w.record); err != nil {
			w.Abort()
			return err
		}
	}
	return nil
}

func (w *TextWriter) writeView(v *pointview.View) error {
	for idx := range v.PointIDs() {
		for i, d := range w.columns {
			val, err := v.Value(d.ID, idx)
			if errors.Is(err, layout.ErrDimensionNotInSchema) {
				w.record[i] = "0"
				continue
			}
			if err != nil {
				return err
			}
			w.record[i] = w.format(val)
		}
		if err := w.w.Write(w.record); err != nil {
			return err
		}
		w.count++
	}
	return nil
}

func (w *TextWriter) format(val pointview.Value) string {
	switch val.Encoding.Base() {
	case dimension.BaseSigned:
		return strconv.FormatInt(val.Int64(), 10)
	case dimension.BaseUnsigned:
		return strconv.FormatUint(val.Uint64(), 10)
	default:
		return strconv.FormatFloat(val.Float64(), 'f', w.precision, 64)
	}
}
