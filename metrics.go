package pointflow

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    executeCounter *prometheus.CounterVec
//	    stageHistogram *prometheus.HistogramVec
//	}
//
//	func (p *PrometheusCollector) RecordStage(tag, typ string, d time.Duration, err error) {
//	    p.stageHistogram.WithLabelValues(typ).Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordLoad is called after each pipeline load.
	// stages is the number of stages, err is nil if successful.
	RecordLoad(stages int, duration time.Duration, err error)

	// RecordExecute is called after each execution.
	// points is the number of points that reached a terminal stage.
	RecordExecute(streamed bool, points int, duration time.Duration, err error)

	// RecordStage is called once per stage of an execution.
	RecordStage(tag, typ string, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)             {}
func (NoopMetricsCollector) RecordExecute(bool, int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordStage(string, string, time.Duration, error) {}

// BasicMetricsCollector is a simple in-memory metrics collector.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount         atomic.Int64
	LoadErrors        atomic.Int64
	ExecuteCount      atomic.Int64
	ExecuteErrors     atomic.Int64
	StreamedCount     atomic.Int64
	ExecuteTotalNanos atomic.Int64
	PointsProcessed   atomic.Int64
	StageCount        atomic.Int64
	StageErrors       atomic.Int64
	StageTotalNanos   atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(stages int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordExecute implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExecute(streamed bool, points int, duration time.Duration, err error) {
	b.ExecuteCount.Add(1)
	b.ExecuteTotalNanos.Add(duration.Nanoseconds())
	if streamed {
		b.StreamedCount.Add(1)
	}
	if err != nil {
		b.ExecuteErrors.Add(1)
		return
	}
	b.PointsProcessed.Add(int64(points))
}

// RecordStage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStage(tag, typ string, duration time.Duration, err error) {
	b.StageCount.Add(1)
	b.StageTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.StageErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:       b.LoadCount.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		ExecuteCount:    b.ExecuteCount.Load(),
		ExecuteErrors:   b.ExecuteErrors.Load(),
		StreamedCount:   b.StreamedCount.Load(),
		ExecuteAvgNanos: avg(b.ExecuteTotalNanos.Load(), b.ExecuteCount.Load()),
		PointsProcessed: b.PointsProcessed.Load(),
		StageCount:      b.StageCount.Load(),
		StageErrors:     b.StageErrors.Load(),
		StageAvgNanos:   avg(b.StageTotalNanos.Load(), b.StageCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount       int64
	LoadErrors      int64
	ExecuteCount    int64
	ExecuteErrors   int64
	StreamedCount   int64
	ExecuteAvgNanos int64
	PointsProcessed int64
	StageCount      int64
	StageErrors     int64
	StageAvgNanos   int64
}
