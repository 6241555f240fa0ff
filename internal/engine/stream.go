package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/stage"
)

// streamRun holds the state of one streamed execution.
type streamRun struct {
	p       *Pipeline
	tagged  map[*Node]*stage.Context
	elapsed map[*Node]time.Duration
	res     *Result
	created []*pointview.View
}

// ExecuteStreamed runs a streamable pipeline in bounded memory. Readers run
// one after another in dependency order; each chunk they emit is pushed
// through every downstream stage and released before the next chunk is
// read. After all readers are drained, the remaining stages are finished in
// dependency order. No views are retained.
func (p *Pipeline) ExecuteStreamed(ctx context.Context, sc *stage.Context, observe StageObserver) (*Result, error) {
	if !p.Streamable() {
		return nil, ErrNotStreamable
	}
	r := &streamRun{
		p:       p,
		tagged:  make(map[*Node]*stage.Context, len(p.nodes)),
		elapsed: make(map[*Node]time.Duration, len(p.nodes)),
		res:     &Result{Streamed: true},
	}
	for _, n := range p.nodes {
		r.tagged[n] = sc.WithTag(n.Tag)
	}

	report := func(n *Node, err error) {
		if observe != nil {
			observe(n.Tag, n.Type, r.elapsed[n], err)
		}
	}

	for _, n := range p.order {
		if n.Kind != stage.KindReader {
			continue
		}
		src := n.Stage.(stage.Source)
		start := time.Now()
		err := src.Stream(ctx, r.tagged[n], sc.ChunkSize, func(chunk *pointview.View) error {
			r.created = append(r.created[:0], chunk)
			err := r.push(ctx, n, chunk)
			for _, v := range r.created {
				v.Release()
			}
			return err
		})
		r.elapsed[n] += time.Since(start)
		if err != nil {
			se := stageError(n, err)
			if failed, ok := p.byTag[tagOf(se)]; ok {
				report(failed, err)
			}
			r.tagged[n].Logger.Error("streamed execution failed", slog.Any("error", se))
			p.abort()
			return nil, se
		}
		report(n, nil)
	}

	for _, n := range p.order {
		if n.Kind == stage.KindReader {
			continue
		}
		start := time.Now()
		err := n.Stage.(stage.Streamer).Finish(ctx, r.tagged[n])
		r.elapsed[n] += time.Since(start)
		report(n, err)
		if err != nil {
			p.abort()
			return nil, stageError(n, err)
		}
	}
	if r.res.Layout == nil {
		r.res.Layout = layout.Merge()
	}
	return r.res, nil
}

// push hands chunk, produced by n, to every consumer of n.
func (r *streamRun) push(ctx context.Context, n *Node, chunk *pointview.View) error {
	if len(n.consumers) == 0 {
		r.res.PointCount += chunk.Len()
		switch {
		case r.res.Layout == nil:
			r.res.Layout = chunk.Layout()
		case !r.res.Layout.Equal(chunk.Layout()):
			r.res.Layout = layout.Merge(r.res.Layout, chunk.Layout())
		}
		return nil
	}
	for _, c := range n.consumers {
		start := time.Now()
		out, err := c.Stage.(stage.Streamer).ProcessChunk(ctx, r.tagged[c], chunk)
		r.elapsed[c] += time.Since(start)
		if err != nil {
			return stageError(c, err)
		}
		if out == nil {
			continue
		}
		if out != chunk {
			r.created = append(r.created, out)
		}
		if err := r.push(ctx, c, out); err != nil {
			return err
		}
	}
	return nil
}

func tagOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Tag
	}
	return ""
}
