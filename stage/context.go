package stage

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/hupe1980/pointflow/blobstore"
	"github.com/hupe1980/pointflow/codec"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/resource"
)

// Context is the execution environment shared by the stages of one run.
type Context struct {
	// Logger receives stage diagnostics.
	Logger *slog.Logger
	// Store resolves the file names of reader and writer stages.
	Store blobstore.BlobStore
	// Resources limits memory and IO. May be nil.
	Resources *resource.Controller
	// Codec encodes JSON written by stages.
	Codec codec.Codec
	// ChunkSize is the number of points per chunk in streamed execution.
	ChunkSize int

	nextID *atomic.Int64
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the stage logger.
func WithLogger(l *slog.Logger) ContextOption {
	return func(c *Context) { c.Logger = l }
}

// WithStore sets the blob store used for file names.
func WithStore(s blobstore.BlobStore) ContextOption {
	return func(c *Context) { c.Store = s }
}

// WithResources sets the resource controller.
func WithResources(rc *resource.Controller) ContextOption {
	return func(c *Context) { c.Resources = rc }
}

// WithCodec sets the JSON codec.
func WithCodec(cd codec.Codec) ContextOption {
	return func(c *Context) { c.Codec = cd }
}

// WithChunkSize sets the streamed chunk size.
func WithChunkSize(n int) ContextOption {
	return func(c *Context) { c.ChunkSize = n }
}

// NewContext returns a Context. Unset fields default to a discarding logger,
// a LocalStore resolving plain paths, codec.Default and DefaultChunkSize.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{nextID: new(atomic.Int64)}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Store == nil {
		c.Store = blobstore.NewLocalStore("")
	}
	if c.Codec == nil {
		c.Codec = codec.Default
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	return c
}

// WithTag returns a copy of c whose logger is annotated with the stage tag.
// The copy shares the view id counter.
func (c *Context) WithTag(tag string) *Context {
	cp := *c
	cp.Logger = c.Logger.With(slog.String("stage", tag))
	return &cp
}

// NextID returns the next view id of the run, starting at 1.
func (c *Context) NextID() int {
	return int(c.nextID.Add(1))
}

// NewBuilder returns a builder for a new view of the run. The view gets the
// next id and its storage is accounted against the resource controller.
func (c *Context) NewBuilder(l *layout.Layout, opts ...pointview.BuilderOption) (*pointview.Builder, error) {
	all := make([]pointview.BuilderOption, 0, len(opts)+2)
	all = append(all, pointview.WithID(c.NextID()))
	if c.Resources != nil {
		all = append(all, pointview.WithMemoryReserver(c.Resources))
	}
	return pointview.NewBuilder(l, append(all, opts...)...)
}

// OpenFile opens name for sequential reading through the IO limiter.
func (c *Context) OpenFile(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	b, err := c.Store.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	r := resource.NewRateLimitedReader(ctx, blobstore.NewReader(ctx, b), c.Resources)
	return &blobReader{Reader: r, blob: b}, b.Size(), nil
}

// ReadFile returns the contents of name.
func (c *Context) ReadFile(ctx context.Context, name string) ([]byte, error) {
	r, _, err := c.OpenFile(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// File is a file under construction. Close publishes it, Abort discards
// it. Files on seekable stores also implement io.Seeker.
type File interface {
	io.WriteCloser
	Abort() error
}

// CreateFile creates name for writing through the IO limiter. The file
// becomes visible on Close.
func (c *Context) CreateFile(ctx context.Context, name string) (File, error) {
	wb, err := c.Store.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	bw := &blobWriter{w: resource.NewRateLimitedWriter(ctx, wb, c.Resources), blob: wb}
	if _, ok := wb.(io.Seeker); ok {
		return &seekableBlobWriter{bw}, nil
	}
	return bw, nil
}

type blobReader struct {
	io.Reader
	blob blobstore.Blob
}

func (r *blobReader) Close() error { return r.blob.Close() }

type blobWriter struct {
	w    *resource.RateLimitedWriter
	blob blobstore.WritableBlob
}

func (w *blobWriter) Write(p []byte) (int, error) { return w.w.Write(p) }

func (w *blobWriter) Close() error {
	if err := w.blob.Sync(); err != nil {
		_ = w.blob.Abort()
		return err
	}
	return w.blob.Close()
}

func (w *blobWriter) Abort() error { return w.blob.Abort() }

type seekableBlobWriter struct {
	*blobWriter
}

func (w *seekableBlobWriter) Seek(offset int64, whence int) (int64, error) {
	return w.w.Seek(offset, whence)
}
