package stage

import (
	"context"

	"github.com/hupe1980/pointflow/metadata"
	"github.com/hupe1980/pointflow/pointview"
)

// TypeNullWriter discards its input.
const TypeNullWriter = "writers.null"

// NullWriter implements writers.null. It counts the points it sees and
// passes its input views on.
type NullWriter struct {
	Base

	count int
}

// NewNullWriter returns a writers.null stage.
func NewNullWriter() *NullWriter {
	return &NullWriter{Base: NewBase(TypeNullWriter)}
}

// Run implements Stage.
func (w *NullWriter) Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error) {
	for _, v := range in {
		w.count += v.Len()
	}
	return in, w.Finish(ctx, sc)
}

// ProcessChunk implements Streamer.
func (w *NullWriter) ProcessChunk(_ context.Context, _ *Context, chunk *pointview.View) (*pointview.View, error) {
	w.count += chunk.Len()
	return chunk, nil
}

// Finish implements Streamer.
func (w *NullWriter) Finish(context.Context, *Context) error {
	w.Metadata().Set("count", metadata.Int(int64(w.count)))
	return nil
}
