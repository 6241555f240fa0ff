// Package resource limits what a pipeline run may consume.
//
// A Controller tracks three resources:
//
//   - Memory: bytes held by point views; ReserveMemory fails fast with ErrMemoryLimit
//   - Concurrency: pipeline branches executing at the same time
//   - IO: token bucket shared by file readers and writers
//
// Memory reservations are made by the point record arena as it grows:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.ReserveMemory(1024 * 1024); err != nil {
//	    // ErrMemoryLimit
//	}
//	defer rc.ReleaseMemory(1024 * 1024)
//
// IO is throttled by wrapping readers and writers:
//
//	writer := resource.NewRateLimitedWriter(ctx, file, rc)
//	reader := resource.NewRateLimitedReader(ctx, file, rc)
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
