package engine

import (
	"github.com/hupe1980/pointflow/codec"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/metadata"
	"github.com/hupe1980/pointflow/stage"
)

const indent = "  "

// Canonical returns the pipeline with every stage spelled out as an object
// holding its type, tag, options in original order and explicit inputs.
// Repeated options are written as arrays.
func (p *Pipeline) Canonical(c codec.Codec) ([]byte, error) {
	stages := make([]metadata.Value, 0, len(p.nodes))
	for _, n := range p.nodes {
		o := metadata.NewObject().
			Set("type", metadata.String(n.Type)).
			Set("tag", metadata.String(n.Tag))
		for _, name := range n.Options.Names() {
			vals := n.Options.GetAll(name)
			if len(vals) == 1 {
				o.Set(name, metadata.String(vals[0]))
			} else {
				o.Set(name, metadata.Strings(vals))
			}
		}
		if n.Kind != stage.KindReader {
			o.Set("inputs", metadata.Strings(n.Inputs))
		}
		stages = append(stages, metadata.ObjectValue(o))
	}
	doc := metadata.NewObject().Set("pipeline", metadata.Array(stages))
	return encode(c, "pipeline", doc)
}

// Metadata returns the run metadata document: the metadata of every stage
// keyed by tag, the run id, the point count and the execution mode.
func (p *Pipeline) Metadata(c codec.Codec, runID string, res *Result) ([]byte, error) {
	doc := metadata.NewObject()
	stages := doc.Child("metadata")
	for _, n := range p.nodes {
		stages.Set(n.Tag, metadata.ObjectValue(n.Stage.Metadata()))
	}
	doc.Set("run_id", metadata.String(runID)).
		Set("point_count", metadata.Int(int64(res.PointCount))).
		Set("streamed", metadata.Bool(res.Streamed))
	return encode(c, "metadata", doc)
}

// Schema returns the output schema document for l.
func Schema(c codec.Codec, l *layout.Layout) ([]byte, error) {
	dims := make([]metadata.Value, 0, l.DimensionCount())
	for _, d := range l.Details() {
		dims = append(dims, metadata.ObjectValue(metadata.NewObject().
			Set("name", metadata.String(d.ID.Name())).
			Set("size", metadata.Int(int64(d.Size))).
			Set("type", metadata.String(d.Encoding.Base().String()))))
	}
	doc := metadata.NewObject()
	doc.Child("schema").Set("dimensions", metadata.Array(dims))
	return encode(c, "schema", doc)
}

func encode(c codec.Codec, name string, doc *metadata.Object) ([]byte, error) {
	b, err := codec.MarshalIndent(c, doc, indent)
	if err != nil {
		return nil, &EncodeError{Document: name, Err: err}
	}
	return b, nil
}
