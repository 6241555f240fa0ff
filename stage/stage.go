package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/pointflow/metadata"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/srs"
)

// DefaultChunkSize is the number of points per chunk in streamed execution.
const DefaultChunkSize = 10000

var (
	// ErrUnknownStage is returned when a stage type is not registered.
	ErrUnknownStage = errors.New("unknown stage type")

	// ErrInvalidOption is returned when an option value cannot be used by a stage.
	ErrInvalidOption = errors.New("invalid option")
)

// Kind classifies stages by their position in a pipeline.
type Kind uint8

const (
	// KindReader produces views from a source.
	KindReader Kind = iota + 1
	// KindFilter transforms views.
	KindFilter
	// KindWriter persists views.
	KindWriter
)

// String returns the plural type prefix of the kind ("readers", ...).
func (k Kind) String() string {
	switch k {
	case KindReader:
		return "readers"
	case KindFilter:
		return "filters"
	case KindWriter:
		return "writers"
	default:
		return "unknown"
	}
}

// KindOf derives the kind of a stage type from its prefix.
func KindOf(typ string) (Kind, bool) {
	prefix, _, ok := strings.Cut(typ, ".")
	if !ok {
		return 0, false
	}
	switch prefix {
	case "readers":
		return KindReader, true
	case "filters":
		return KindFilter, true
	case "writers":
		return KindWriter, true
	}
	return 0, false
}

// Stage is one step of a pipeline.
//
// A stage is configured once and run once. Run receives the union of the
// views produced by the stage inputs, in input order, and returns the views
// it produces. Readers receive no views. A stage must not retain or release
// its input views.
type Stage interface {
	// Type returns the registered type name, e.g. "filters.range".
	Type() string
	// Kind returns the pipeline role of the stage.
	Kind() Kind
	// Configure applies opts. It is called before Run.
	Configure(opts *Options) error
	// Run executes the stage in standard mode.
	Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error)
	// Metadata returns what the stage recorded about its run.
	Metadata() *metadata.Object
}

// Source is a reader that can emit its points in bounded chunks.
type Source interface {
	Stage
	// Stream calls emit with successive chunks of at most chunkSize points.
	// Chunks are owned by the caller once emitted.
	Stream(ctx context.Context, sc *Context, chunkSize int, emit func(*pointview.View) error) error
}

// Streamer is a filter or writer that can process chunks one at a time.
type Streamer interface {
	Stage
	// ProcessChunk handles one chunk and returns the chunk to pass on, which
	// may be the input itself. A nil result drops the chunk. A new chunk is
	// owned by the caller.
	ProcessChunk(ctx context.Context, sc *Context, chunk *pointview.View) (*pointview.View, error)
	// Finish is called once after the last chunk.
	Finish(ctx context.Context, sc *Context) error
}

// Aborter is a stage that can hold partial output, such as a writer with an
// open file. When a run fails, Abort is called on every such stage after all
// stages stopped; it discards whatever the stage has not published yet.
// Abort on a stage that holds nothing is a no-op.
type Aborter interface {
	Abort()
}

// Streamable reports whether s supports streamed execution.
func Streamable(s Stage) bool {
	switch s.Kind() {
	case KindReader:
		_, ok := s.(Source)
		return ok
	default:
		_, ok := s.(Streamer)
		return ok
	}
}

// Base carries the options every stage accepts and the stage metadata.
// Built-in stages embed it.
type Base struct {
	typ  string
	kind Kind
	meta *metadata.Object

	// SRS is the spatial reference set with the "spatialreference" option.
	SRS srs.SpatialReference
	// UserData is the raw "user_data" option.
	UserData string
}

// NewBase returns a Base for a stage of the given type.
func NewBase(typ string) Base {
	k, _ := KindOf(typ)
	return Base{typ: typ, kind: k, meta: metadata.NewObject()}
}

// Type implements Stage.
func (b *Base) Type() string { return b.typ }

// Kind implements Stage.
func (b *Base) Kind() Kind { return b.kind }

// Metadata implements Stage.
func (b *Base) Metadata() *metadata.Object {
	if b.meta == nil {
		b.meta = metadata.NewObject()
	}
	return b.meta
}

// Configure applies the common options.
func (b *Base) Configure(opts *Options) error {
	if text, ok := opts.Get("spatialreference"); ok && text != "" {
		ref, err := srs.Parse(text)
		if err != nil {
			return fmt.Errorf("%w: spatialreference: %v", ErrInvalidOption, err)
		}
		b.SRS = ref
	}
	if ud, ok := opts.Get("user_data"); ok {
		b.UserData = ud
		b.Metadata().Set("user_data", metadata.String(ud))
	}
	return nil
}

// applySRS overrides the spatial reference of b when the stage has one.
func (b *Base) applySRS(pb *pointview.Builder) {
	if !b.SRS.IsEmpty() {
		pb.SetSRS(b.SRS)
	}
}
