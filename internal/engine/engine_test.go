package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pointflow/blobstore"
	"github.com/hupe1980/pointflow/codec"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/resource"
	"github.com/hupe1980/pointflow/stage"
)

func mustParse(t *testing.T, text string) *Pipeline {
	t.Helper()
	p, err := Parse([]byte(text), stage.DefaultRegistry(), codec.Default)
	require.NoError(t, err)
	return p
}

func newContext(t *testing.T, opts ...stage.ContextOption) (*stage.Context, *blobstore.MemoryStore) {
	t.Helper()
	store := blobstore.NewMemoryStore()
	return stage.NewContext(append([]stage.ContextOption{stage.WithStore(store)}, opts...)...), store
}

func tags(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Tag
	}
	return out
}

func TestParse(t *testing.T) {
	t.Run("DefaultInputsAndTags", func(t *testing.T) {
		p := mustParse(t, `{"pipeline": [
			{"type": "readers.faux", "count": 3, "mode": "ramp"},
			{"type": "filters.range", "limits": ["X[0:1]", "X[2:2]"]},
			{"type": "writers.null"}
		]}`)
		nodes := p.Nodes()
		require.Len(t, nodes, 3)
		assert.Equal(t, []string{"readers_faux1", "filters_range1", "writers_null1"}, tags(nodes))
		assert.Empty(t, nodes[0].Inputs)
		assert.Equal(t, []string{"readers_faux1"}, nodes[1].Inputs)
		assert.Equal(t, []string{"filters_range1"}, nodes[2].Inputs)
		assert.Equal(t, stage.KindFilter, nodes[1].Kind)

		count, _ := nodes[0].Options.Get("count")
		assert.Equal(t, "3", count)
		assert.Equal(t, []string{"X[0:1]", "X[2:2]"}, nodes[1].Options.GetAll("limits"))
		assert.Equal(t, []string{"writers_null1"}, tags(p.Terminals()))
		assert.True(t, p.Streamable())
	})

	t.Run("FileNames", func(t *testing.T) {
		p := mustParse(t, `["a.csv", "b.ptf", {"type": "filters.merge"}, "out.sqlite"]`)
		nodes := p.Nodes()
		assert.Equal(t, "readers.text", nodes[0].Type)
		assert.Equal(t, "readers.ptf", nodes[1].Type)
		assert.Equal(t, []string{"readers_text1", "readers_ptf1"}, nodes[2].Inputs)
		assert.Equal(t, "writers.sqlite", nodes[3].Type)
		filename, _ := nodes[3].Options.Get("filename")
		assert.Equal(t, "out.sqlite", filename)
		assert.False(t, p.Streamable())
	})

	t.Run("ExplicitTags", func(t *testing.T) {
		p := mustParse(t, `[
			{"type": "readers.faux", "tag": "readers_faux1"},
			{"type": "readers.faux"},
			{"type": "filters.head", "tag": "first", "inputs": "readers_faux1"},
			{"type": "filters.head", "inputs": ["readers_faux2"]}
		]`)
		assert.Equal(t, []string{"readers_faux1", "readers_faux2", "first", "filters_head1"}, tags(p.Nodes()))
		assert.Equal(t, []string{"first", "filters_head1"}, tags(p.Terminals()))
		n, ok := p.Node("first")
		require.True(t, ok)
		assert.Equal(t, "filters.head", n.Type)
	})

	t.Run("ScalarAndObjectOptions", func(t *testing.T) {
		p := mustParse(t, `[{"type": "readers.faux", "seed": 42, "count": 15, "user_data": {"a": [1, 2]}, "mode": null}, {"type": "writers.text", "filename": "x.csv", "write_header": false}]`)
		opts := p.Nodes()[0].Options
		assert.Equal(t, []string{"seed", "count", "user_data"}, opts.Names())
		ud, _ := opts.Get("user_data")
		assert.Equal(t, `{"a":[1,2]}`, ud)
		wh, _ := p.Nodes()[1].Options.Get("write_header")
		assert.Equal(t, "false", wh)
	})

	t.Run("Errors", func(t *testing.T) {
		for name, text := range map[string]string{
			"Empty":           ``,
			"Malformed":       `{"pipeline": [`,
			"NoStages":        `[]`,
			"MissingPipeline": `{"stages": []}`,
			"NotContainer":    `42`,
			"BadStage":        `[42]`,
			"UnknownType":     `[{"type": "filters.nope"}]`,
			"NoType":          `[{"count": 3}]`,
			"UnknownExt":      `["points.xyz"]`,
			"ReaderInputs":    `[{"type": "readers.faux", "inputs": "x"}]`,
			"DuplicateTag":    `[{"type": "readers.faux", "tag": "a"}, {"type": "readers.faux", "tag": "a"}]`,
			"BadTag":          `[{"type": "readers.faux", "tag": "a b"}]`,
			"Dangling":        `[{"type": "readers.faux"}, {"type": "writers.null", "inputs": "nope"}]`,
			"NoInput":         `[{"type": "filters.head"}]`,
			"BadOption":       `[{"type": "readers.faux", "count": "many"}]`,
			"NestedArray":     `[{"type": "filters.range", "limits": [["X[0:1]"]]}]`,
			"Cycle": `[
				{"type": "readers.faux", "tag": "r"},
				{"type": "filters.head", "tag": "a", "inputs": ["r", "b"]},
				{"type": "filters.head", "tag": "b", "inputs": "a"}
			]`,
		} {
			t.Run(name, func(t *testing.T) {
				_, err := Parse([]byte(text), stage.DefaultRegistry(), nil)
				var pe *ParseError
				require.ErrorAs(t, err, &pe)
				assert.NotEmpty(t, pe.Error())
			})
		}
	})

	t.Run("UnknownTypeWrapsRegistryError", func(t *testing.T) {
		_, err := Parse([]byte(`[{"type": "filters.nope"}]`), stage.DefaultRegistry(), nil)
		assert.ErrorIs(t, err, stage.ErrUnknownStage)
		_, err = Parse([]byte(`[{"type": "readers.faux", "mode": "spiral"}]`), stage.DefaultRegistry(), nil)
		assert.ErrorIs(t, err, stage.ErrInvalidOption)
	})
}

func TestParseWithEitherCodec(t *testing.T) {
	const text = `[
		{"type": "readers.faux", "user_data": {"site":  "north", "run": [1, 2]}, "count": 2, "mode": "ramp"},
		{"type": "writers.null"}
	]`
	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			p, err := Parse([]byte(text), stage.DefaultRegistry(), c)
			require.NoError(t, err)
			opts := p.Nodes()[0].Options
			assert.Equal(t, []string{"user_data", "count", "mode"}, opts.Names())
			ud, _ := opts.Get("user_data")
			assert.Equal(t, `{"site":"north","run":[1,2]}`, ud)
		})
	}
}

func TestCanonical(t *testing.T) {
	p := mustParse(t, `["in.csv", {"type": "filters.range", "limits": ["X[0:1]", "Y[0:1]"], "tag": "clip"}, "out.ptf"]`)
	out, err := p.Canonical(codec.Default)
	require.NoError(t, err)

	var doc struct {
		Pipeline []map[string]any `json:"pipeline"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Len(t, doc.Pipeline, 3)
	assert.Equal(t, "readers.text", doc.Pipeline[0]["type"])
	assert.Equal(t, "readers_text1", doc.Pipeline[0]["tag"])
	assert.NotContains(t, doc.Pipeline[0], "inputs")
	assert.Equal(t, []any{"X[0:1]", "Y[0:1]"}, doc.Pipeline[1]["limits"])
	assert.Equal(t, []any{"readers_text1"}, doc.Pipeline[1]["inputs"])
	assert.Equal(t, []any{"clip"}, doc.Pipeline[2]["inputs"])

	text := string(out)
	assert.Less(t, strings.Index(text, `"type"`), strings.Index(text, `"tag"`))

	// The canonical form parses back to itself.
	again, err := mustParse(t, text).Canonical(codec.Default)
	require.NoError(t, err)
	assert.JSONEq(t, text, string(again))
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("Chain", func(t *testing.T) {
		rc := resource.NewController(resource.Config{})
		sc, _ := newContext(t, stage.WithResources(rc))
		p := mustParse(t, `[
			{"type": "readers.faux", "count": 3, "mode": "ramp", "bounds": "([0,2],[0,2],[0,2])"},
			{"type": "filters.head", "count": 2},
			{"type": "writers.null"}
		]`)
		var (
			mu       sync.Mutex
			observed []string
		)
		res, err := p.Execute(ctx, sc, func(tag, _ string, _ time.Duration, err error) {
			mu.Lock()
			defer mu.Unlock()
			assert.NoError(t, err)
			observed = append(observed, tag)
		})
		require.NoError(t, err)
		require.Len(t, res.Views, 1)
		assert.Equal(t, 2, res.PointCount)
		assert.False(t, res.Streamed)
		assert.Equal(t, 2, res.Views[0].ID())
		assert.True(t, res.Layout.Equal(res.Views[0].Layout()))
		assert.ElementsMatch(t, []string{"readers_faux1", "filters_head1", "writers_null1"}, observed)

		// Only the terminal view is still accounted.
		assert.Positive(t, rc.MemoryUsage())
		pointview.NewSet(res.Views...).Release()
		assert.Zero(t, rc.MemoryUsage())
	})

	t.Run("Branches", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MaxBackgroundWorkers: 4})
		sc, _ := newContext(t, stage.WithResources(rc))
		p := mustParse(t, `[
			{"type": "readers.faux", "tag": "src", "count": 10},
			{"type": "filters.head", "count": 3, "inputs": "src"},
			{"type": "filters.decimation", "step": 5, "inputs": "src"},
			{"type": "readers.faux", "tag": "other", "count": 4},
			{"type": "filters.merge", "inputs": ["filters_head1", "other"]}
		]`)
		res, err := p.Execute(ctx, sc, nil)
		require.NoError(t, err)
		require.Len(t, res.Views, 2)
		counts := []int{res.Views[0].Len(), res.Views[1].Len()}
		assert.ElementsMatch(t, []int{2, 7}, counts)
		assert.Equal(t, 9, res.PointCount)
	})

	t.Run("MemoryLimit", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
		sc, _ := newContext(t, stage.WithResources(rc))
		p := mustParse(t, `[{"type": "readers.faux", "count": 1000}, {"type": "writers.null"}]`)
		_, err := p.Execute(ctx, sc, nil)
		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "readers_faux1", se.Tag)
		assert.ErrorIs(t, err, resource.ErrMemoryLimit)
		assert.Zero(t, rc.MemoryUsage())
	})

	t.Run("StageFailure", func(t *testing.T) {
		sc, _ := newContext(t)
		p := mustParse(t, `[{"type": "readers.ptf", "filename": "missing.ptf"}, {"type": "writers.null"}]`)
		_, err := p.Execute(ctx, sc, nil)
		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "readers.ptf", se.Type)
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func TestExecuteStreamed(t *testing.T) {
	ctx := context.Background()
	const text = `[
		{"type": "readers.faux", "count": 25, "mode": "ramp", "bounds": "([0,24],[0,24],[0,24])"},
		{"type": "filters.range", "limits": "X[5:14]"},
		{"type": "filters.stats", "dimensions": "X"},
		{"type": "writers.ptf", "filename": "%s"}
	]`

	rc := resource.NewController(resource.Config{})
	sc, _ := newContext(t, stage.WithResources(rc), stage.WithChunkSize(4))

	streamed := mustParse(t, strings.Replace(text, "%s", "streamed.ptf", 1))
	require.True(t, streamed.Streamable())
	res, err := streamed.ExecuteStreamed(ctx, sc, nil)
	require.NoError(t, err)
	assert.True(t, res.Streamed)
	assert.Empty(t, res.Views)
	assert.Equal(t, 10, res.PointCount)
	assert.Equal(t, 6, res.Layout.DimensionCount())
	assert.Zero(t, rc.MemoryUsage())

	standard := mustParse(t, strings.Replace(text, "%s", "standard.ptf", 1))
	sres, err := standard.Execute(ctx, sc, nil)
	require.NoError(t, err)
	assert.Equal(t, res.PointCount, sres.PointCount)

	read := func(name string) []byte {
		r := stage.NewPTFReader()
		require.NoError(t, r.Configure(stage.NewOptions().Add("filename", name)))
		views, err := r.Run(ctx, sc, nil)
		require.NoError(t, err)
		require.Len(t, views, 1)
		defer views[0].Release()
		return views[0].Bytes()
	}
	assert.Equal(t, read("standard.ptf"), read("streamed.ptf"))
	pointview.NewSet(sres.Views...).Release()
	assert.Zero(t, rc.MemoryUsage())

	n, ok := streamed.Node("filters_stats1")
	require.True(t, ok)
	sums := n.Stage.(*stage.StatsFilter).Summaries()
	require.Len(t, sums, 1)
	assert.Equal(t, 10, sums[0].Count)
	assert.InDelta(t, 9.5, sums[0].Average, 1e-9)

	t.Run("NotStreamable", func(t *testing.T) {
		p := mustParse(t, `[{"type": "readers.faux"}, {"type": "filters.merge"}]`)
		_, err := p.ExecuteStreamed(ctx, sc, nil)
		assert.ErrorIs(t, err, ErrNotStreamable)
	})

	t.Run("ChunkFailure", func(t *testing.T) {
		p := mustParse(t, `[{"type": "readers.faux", "count": 10}, {"type": "filters.range", "limits": "GpsTime[0:1]"}]`)
		_, err := p.ExecuteStreamed(ctx, sc, nil)
		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "filters_range1", se.Tag)
		assert.Zero(t, rc.MemoryUsage())
	})
}

func TestDocuments(t *testing.T) {
	ctx := context.Background()
	sc, _ := newContext(t)
	p := mustParse(t, `[{"type": "readers.faux", "count": 5, "user_data": "hello"}, {"type": "filters.stats"}]`)
	res, err := p.Execute(ctx, sc, nil)
	require.NoError(t, err)

	md, err := p.Metadata(codec.Default, "run-1", res)
	require.NoError(t, err)
	var doc struct {
		Metadata   map[string]map[string]any `json:"metadata"`
		RunID      string                    `json:"run_id"`
		PointCount int                       `json:"point_count"`
		Streamed   bool                      `json:"streamed"`
	}
	require.NoError(t, json.Unmarshal(md, &doc))
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, 5, doc.PointCount)
	assert.False(t, doc.Streamed)
	assert.Equal(t, "hello", doc.Metadata["readers_faux1"]["user_data"])
	assert.Contains(t, doc.Metadata["filters_stats1"], "statistic")
	assert.Contains(t, string(md), `"average"`)

	schema, err := Schema(codec.Default, res.Layout)
	require.NoError(t, err)
	var sdoc struct {
		Schema struct {
			Dimensions []struct {
				Name string `json:"name"`
				Size int    `json:"size"`
				Type string `json:"type"`
			} `json:"dimensions"`
		} `json:"schema"`
	}
	require.NoError(t, json.Unmarshal(schema, &sdoc))
	dims := sdoc.Schema.Dimensions
	require.Len(t, dims, 6)
	assert.Equal(t, "X", dims[0].Name)
	assert.Equal(t, 8, dims[0].Size)
	assert.Equal(t, "floating", dims[0].Type)
	assert.Equal(t, "unsigned", dims[3].Type)
}

func TestParseErrorFormat(t *testing.T) {
	err := &ParseError{Index: 2, Msg: "bad", Err: errors.New("cause")}
	assert.Equal(t, "stage 2: bad: cause", err.Error())
	err = &ParseError{Index: -1, Msg: "empty"}
	assert.Equal(t, "empty", err.Error())
}

// dropFilter discards every chunk it sees.
type dropFilter struct {
	stage.Base
	seen int
}

func newDropFilter() stage.Stage {
	return &dropFilter{Base: stage.NewBase("filters.drop")}
}

func (f *dropFilter) Run(context.Context, *stage.Context, []*pointview.View) ([]*pointview.View, error) {
	return nil, nil
}

func (f *dropFilter) ProcessChunk(_ context.Context, _ *stage.Context, chunk *pointview.View) (*pointview.View, error) {
	f.seen += chunk.Len()
	return nil, nil
}

func (f *dropFilter) Finish(context.Context, *stage.Context) error { return nil }

func TestExecuteStreamedDroppedChunks(t *testing.T) {
	reg := stage.DefaultRegistry()
	require.NoError(t, reg.Register("filters.drop", newDropFilter))
	p, err := Parse([]byte(`[
		{"type": "readers.faux", "count": 10},
		{"type": "filters.drop"},
		{"type": "writers.null"}
	]`), reg, codec.Default)
	require.NoError(t, err)
	require.True(t, p.Streamable())

	rc := resource.NewController(resource.Config{})
	sc, _ := newContext(t, stage.WithResources(rc), stage.WithChunkSize(3))
	res, err := p.ExecuteStreamed(context.Background(), sc, nil)
	require.NoError(t, err)
	assert.Zero(t, res.PointCount)
	assert.Zero(t, res.Layout.DimensionCount())
	assert.Zero(t, rc.MemoryUsage())

	n, ok := p.Node("filters_drop1")
	require.True(t, ok)
	assert.Equal(t, 10, n.Stage.(*dropFilter).seen)
}

func TestFailedRunDiscardsPartialOutput(t *testing.T) {
	ctx := context.Background()
	const text = `[
		{"type": "readers.faux", "tag": "a", "count": 10},
		{"type": "readers.text", "tag": "b", "filename": "missing.csv"},
		{"type": "writers.ptf", "filename": "out.ptf", "inputs": ["a", "b"]}
	]`

	for _, streamed := range []bool{true, false} {
		name := "Standard"
		if streamed {
			name = "Streamed"
		}
		t.Run(name+"Local", func(t *testing.T) {
			dir := t.TempDir()
			sc := stage.NewContext(stage.WithStore(blobstore.NewLocalStore(dir)), stage.WithChunkSize(4))
			p := mustParse(t, text)
			var err error
			if streamed {
				_, err = p.ExecuteStreamed(ctx, sc, nil)
			} else {
				_, err = p.Execute(ctx, sc, nil)
			}
			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "b", se.Tag)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
		t.Run(name+"Memory", func(t *testing.T) {
			rc := resource.NewController(resource.Config{})
			sc, store := newContext(t, stage.WithResources(rc), stage.WithChunkSize(4))
			p := mustParse(t, text)
			var err error
			if streamed {
				_, err = p.ExecuteStreamed(ctx, sc, nil)
			} else {
				_, err = p.Execute(ctx, sc, nil)
			}
			require.Error(t, err)

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, names)
			assert.Zero(t, rc.MemoryUsage())
		})
	}
}
