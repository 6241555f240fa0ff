package stage

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"
)

// Factory creates an unconfigured stage.
type Factory func() Stage

// Registry maps stage type names to factories.
//
// A Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	readers   map[string]string
	writers   map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		readers:   make(map[string]string),
		writers:   make(map[string]string),
	}
}

// DefaultRegistry returns a new registry holding every built-in stage.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// Register adds a stage type. The type must carry a kind prefix
// ("readers.", "filters." or "writers.") and must not be registered yet.
func (r *Registry) Register(typ string, f Factory) error {
	if _, ok := KindOf(typ); !ok {
		return fmt.Errorf("stage type %q has no kind prefix", typ)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[typ]; dup {
		return fmt.Errorf("stage type %q already registered", typ)
	}
	r.factories[typ] = f
	return nil
}

// RegisterExtension makes typ the inferred stage for file names ending in
// ext. The kind of typ decides whether it is inferred as reader or writer.
func (r *Registry) RegisterExtension(ext, typ string) error {
	kind, _ := KindOf(typ)
	ext = strings.ToLower(ext)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[typ]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStage, typ)
	}
	switch kind {
	case KindReader:
		r.readers[ext] = typ
	case KindWriter:
		r.writers[ext] = typ
	default:
		return fmt.Errorf("stage type %q cannot be inferred from a file name", typ)
	}
	return nil
}

// New creates a stage of type typ.
func (r *Registry) New(typ string) (Stage, error) {
	r.mu.RLock()
	f, ok := r.factories[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, typ)
	}
	return f(), nil
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typ]
	return ok
}

// Types returns every registered type, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// InferReader returns the reader type for filename, by extension.
func (r *Registry) InferReader(filename string) (string, bool) {
	return r.infer(r.readers, filename)
}

// InferWriter returns the writer type for filename, by extension.
func (r *Registry) InferWriter(filename string) (string, bool) {
	return r.infer(r.writers, filename)
}

func (r *Registry) infer(byExt map[string]string, filename string) (string, bool) {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	typ, ok := byExt[ext]
	return typ, ok
}

func registerBuiltins(r *Registry) {
	builtins := []struct {
		typ string
		f   Factory
	}{
		{TypeFauxReader, func() Stage { return NewFauxReader() }},
		{TypeTextReader, func() Stage { return NewTextReader() }},
		{TypePTFReader, func() Stage { return NewPTFReader() }},
		{TypeArrowReader, func() Stage { return NewArrowReader() }},
		{TypeRangeFilter, func() Stage { return NewRangeFilter() }},
		{TypeAssignFilter, func() Stage { return NewAssignFilter() }},
		{TypeHeadFilter, func() Stage { return NewHeadFilter() }},
		{TypeDecimationFilter, func() Stage { return NewDecimationFilter() }},
		{TypeStatsFilter, func() Stage { return NewStatsFilter() }},
		{TypeMergeFilter, func() Stage { return NewMergeFilter() }},
		{TypeNullWriter, func() Stage { return NewNullWriter() }},
		{TypeTextWriter, func() Stage { return NewTextWriter() }},
		{TypePTFWriter, func() Stage { return NewPTFWriter() }},
		{TypeArrowWriter, func() Stage { return NewArrowWriter() }},
		{TypeSQLiteWriter, func() Stage { return NewSQLiteWriter() }},
	}
	for _, b := range builtins {
		if err := r.Register(b.typ, b.f); err != nil {
			panic(err)
		}
	}
	extensions := []struct{ ext, typ string }{
		{".csv", TypeTextReader},
		{".txt", TypeTextReader},
		{".ptf", TypePTFReader},
		{".arrow", TypeArrowReader},
		{".csv", TypeTextWriter},
		{".txt", TypeTextWriter},
		{".ptf", TypePTFWriter},
		{".arrow", TypeArrowWriter},
		{".sqlite", TypeSQLiteWriter},
	}
	for _, e := range extensions {
		if err := r.RegisterExtension(e.ext, e.typ); err != nil {
			panic(err)
		}
	}
}
