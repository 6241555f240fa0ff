package pointflow

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/pointflow/internal/engine"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/resource"
	"github.com/hupe1980/pointflow/stage"
)

// State is the lifecycle state of a Manager.
type State int

const (
	// StateConstructed is the state of a new Manager. Only loading is allowed.
	StateConstructed State = iota
	// StateLoaded means a pipeline was parsed and validated.
	StateLoaded
	// StateExecuted means the pipeline ran successfully. Results are available.
	StateExecuted
	// StateFailed means execution failed. The Manager cannot be reused.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateLoaded:
		return "loaded"
	case StateExecuted:
		return "executed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Manager loads one pipeline description, executes it once and exposes the
// resulting point views.
//
// A Manager moves from StateConstructed to StateLoaded on a successful load
// and from StateLoaded to StateExecuted or StateFailed on execution. Calls
// that are not legal in the current state return ErrInvalidState. Manager is
// safe for concurrent use, but views returned by Views must not be used after
// Close.
type Manager struct {
	mu        sync.Mutex
	opts      options
	state     State
	closed    bool
	pipeline  *engine.Pipeline
	resources *resource.Controller
	result    *engine.Result
	views     *pointview.Set
	runID     string
}

// NewManager returns a Manager in StateConstructed.
func NewManager(optFns ...Option) *Manager {
	o := applyOptions(optFns)
	return &Manager{
		opts:      o,
		state:     StateConstructed,
		resources: resource.NewController(o.resources),
		runID:     uuid.NewString(),
	}
}

// LoadFromText parses and validates a pipeline description.
//
// Malformed descriptions fail with a *ParseError and leave the Manager in
// StateConstructed.
func (m *Manager) LoadFromText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load([]byte(text))
}

// LoadFromFile reads a pipeline description from path and loads it.
//
// A file that cannot be read fails with an *IOError.
func (m *Manager) LoadFromFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkState("load", StateConstructed); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		err = &IOError{Path: path, cause: err}
		m.opts.logger.LogLoad(context.Background(), 0, err)
		m.opts.metricsCollector.RecordLoad(0, 0, err)
		return err
	}
	return m.load(data)
}

func (m *Manager) load(data []byte) error {
	if err := m.checkState("load", StateConstructed); err != nil {
		return err
	}
	start := time.Now()
	p, err := engine.Parse(data, m.opts.registry, m.opts.codec)
	elapsed := time.Since(start)
	if err != nil {
		err = translateError(err)
		m.opts.logger.LogLoad(context.Background(), 0, err)
		m.opts.metricsCollector.RecordLoad(0, elapsed, err)
		return err
	}
	stages := len(p.Nodes())
	m.opts.logger.LogLoad(context.Background(), stages, nil)
	m.opts.metricsCollector.RecordLoad(stages, elapsed, nil)
	m.pipeline = p
	m.state = StateLoaded
	return nil
}

// CanStreamExecute reports whether every stage of the loaded pipeline can
// process points in bounded chunks.
func (m *Manager) CanStreamExecute() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkState("inspect pipeline", StateLoaded, StateExecuted, StateFailed); err != nil {
		return false, err
	}
	return m.pipeline.Streamable(), nil
}

// Execute runs the loaded pipeline and returns the number of points in the
// resulting views. A pipeline can be executed once.
//
// Stage failures are reported as *ExecutionError; the Manager then moves to
// StateFailed and exposes no views.
func (m *Manager) Execute() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkState("execute", StateLoaded); err != nil {
		return 0, err
	}
	return m.run(false)
}

// ExecuteStreamed runs the loaded pipeline in bounded chunks when every stage
// supports it, and falls back to Execute otherwise. A streamed run retains
// no views: Views returns an empty set and PointCount reports the number of
// points that reached the terminal stages.
func (m *Manager) ExecuteStreamed() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkState("execute", StateLoaded); err != nil {
		return err
	}
	_, err := m.run(m.pipeline.Streamable())
	return err
}

func (m *Manager) run(streamed bool) (int, error) {
	ctx := context.Background()
	logger := m.opts.logger.WithRun(m.runID)
	sc := stage.NewContext(
		stage.WithLogger(logger.Logger),
		stage.WithStore(m.opts.store),
		stage.WithResources(m.resources),
		stage.WithCodec(m.opts.codec),
		stage.WithChunkSize(m.opts.chunkSize),
	)
	observe := func(tag, typ string, elapsed time.Duration, err error) {
		m.opts.metricsCollector.RecordStage(tag, typ, elapsed, err)
		logger.LogStage(ctx, tag, typ, elapsed, err)
	}

	var (
		res *engine.Result
		err error
	)
	start := time.Now()
	if streamed {
		res, err = m.pipeline.ExecuteStreamed(ctx, sc, observe)
	} else {
		res, err = m.pipeline.Execute(ctx, sc, observe)
	}
	elapsed := time.Since(start)
	if err != nil {
		err = translateError(err)
		m.state = StateFailed
		logger.LogExecute(ctx, streamed, 0, elapsed, err)
		m.opts.metricsCollector.RecordExecute(streamed, 0, elapsed, err)
		return 0, err
	}

	m.result = res
	m.views = pointview.NewSet(res.Views...)
	m.state = StateExecuted
	logger.LogExecute(ctx, streamed, res.PointCount, elapsed, nil)
	m.opts.metricsCollector.RecordExecute(streamed, res.PointCount, elapsed, nil)
	return res.PointCount, nil
}

// Views returns the views produced by the terminal stages.
func (m *Manager) Views() (*pointview.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkState("get views", StateExecuted); err != nil {
		return nil, err
	}
	return m.views, nil
}

// Metadata returns the metadata of every stage as a JSON document keyed by
// stage tag.
func (m *Manager) Metadata() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkState("get metadata", StateExecuted); err != nil {
		return "", err
	}
	b, err := m.pipeline.Metadata(m.opts.codec, m.runID, m.result)
	if err != nil {
		return "", translateError(err)
	}
	return string(b), nil
}

// Schema returns the dimensions of the resulting views as a JSON document.
func (m *Manager) Schema() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkState("get schema", StateExecuted); err != nil {
		return "", err
	}
	b, err := engine.Schema(m.opts.codec, m.result.Layout)
	if err != nil {
		return "", translateError(err)
	}
	return string(b), nil
}

// Pipeline returns the loaded pipeline in canonical JSON form, with every
// stage tagged and its inputs spelled out.
func (m *Manager) Pipeline() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkState("get pipeline", StateLoaded, StateExecuted, StateFailed); err != nil {
		return "", err
	}
	b, err := m.pipeline.Canonical(m.opts.codec)
	if err != nil {
		return "", translateError(err)
	}
	return string(b), nil
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// PointCount returns the number of points produced by the last successful
// execution, or 0.
func (m *Manager) PointCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result == nil {
		return 0
	}
	return m.result.PointCount
}

// RunID returns the identifier reported in the metadata document.
func (m *Manager) RunID() string {
	return m.runID
}

// MemoryUsage returns the number of bytes currently held by point views of
// this Manager.
func (m *Manager) MemoryUsage() int64 {
	return m.resources.MemoryUsage()
}

func (m *Manager) checkState(op string, allowed ...State) error {
	if m.closed {
		return stateError(op, m.state, "closed")
	}
	for _, s := range allowed {
		if m.state == s {
			return nil
		}
	}
	return stateError(op, m.state, "")
}
