package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/stage"
)

// StageObserver is called once per stage after it completed or failed.
type StageObserver func(tag, typ string, elapsed time.Duration, err error)

// Result is the outcome of one run.
type Result struct {
	// Views are the distinct views returned by the terminal stages. Empty
	// after a streamed run.
	Views []*pointview.View
	// Layout is the union of the terminal layouts in first-seen order.
	Layout *layout.Layout
	// PointCount is the number of points that reached a terminal stage.
	PointCount int
	Streamed   bool
}

// Execute runs every stage once in dependency order. Independent branches
// run concurrently, bounded by the worker limit of sc.Resources. Views not
// returned by a terminal stage are released before Execute returns; on error
// every view is released.
func (p *Pipeline) Execute(ctx context.Context, sc *stage.Context, observe StageObserver) (*Result, error) {
	var (
		mu      sync.Mutex
		outputs = make(map[*Node][]*pointview.View, len(p.nodes))
		done    = make(map[*Node]chan struct{}, len(p.nodes))
	)
	for _, n := range p.nodes {
		done[n] = make(chan struct{})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, n := range p.order {
		g.Go(func() error {
			for _, src := range n.inputs {
				select {
				case <-done[src]:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			mu.Lock()
			var in []*pointview.View
			for _, src := range n.inputs {
				in = append(in, outputs[src]...)
			}
			mu.Unlock()

			if err := sc.Resources.AcquireBackground(gctx); err != nil {
				return err
			}
			out, err := p.runStage(gctx, sc, n, in, observe)
			sc.Resources.ReleaseBackground()
			if err != nil {
				return err
			}

			mu.Lock()
			outputs[n] = out
			mu.Unlock()
			close(done[n])
			return nil
		})
	}
	err := g.Wait()

	keep := make(map[*pointview.View]bool)
	res := &Result{}
	if err == nil {
		var layouts []*layout.Layout
		for _, t := range p.Terminals() {
			for _, v := range outputs[t] {
				if keep[v] {
					continue
				}
				keep[v] = true
				res.Views = append(res.Views, v)
				res.PointCount += v.Len()
				layouts = append(layouts, v.Layout())
			}
		}
		res.Layout = layout.Merge(layouts...)
	}
	for _, out := range outputs {
		for _, v := range out {
			if !keep[v] {
				v.Release()
			}
		}
	}
	if err != nil {
		p.abort()
		return nil, err
	}
	return res, nil
}

// abort lets every stage holding partial output discard it.
func (p *Pipeline) abort() {
	for _, n := range p.order {
		if a, ok := n.Stage.(stage.Aborter); ok {
			a.Abort()
		}
	}
}

func (p *Pipeline) runStage(ctx context.Context, sc *stage.Context, n *Node, in []*pointview.View, observe StageObserver) ([]*pointview.View, error) {
	tsc := sc.WithTag(n.Tag)
	start := time.Now()
	out, err := n.Stage.Run(ctx, tsc, in)
	elapsed := time.Since(start)
	if observe != nil {
		observe(n.Tag, n.Type, elapsed, err)
	}
	if err != nil {
		tsc.Logger.Error("stage failed", slog.Any("error", err))
		return nil, stageError(n, err)
	}
	tsc.Logger.Debug("stage completed",
		slog.Int("views_in", len(in)),
		slog.Int("views_out", len(out)),
		slog.Duration("elapsed", elapsed),
	)
	return out, nil
}
