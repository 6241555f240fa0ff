// Package pointflow runs point-cloud processing pipelines and exposes their
// results for typed, per-dimension access.
//
// A pipeline is a JSON description of stages: readers produce point views,
// filters transform them and writers persist them. A Manager loads one
// description, executes it once and hands out the resulting views.
//
// # Quick Start
//
//	m := pointflow.NewManager()
//	defer m.Close()
//
//	err := m.LoadFromText(`{"pipeline": [
//	    {"type": "readers.faux", "count": 3, "mode": "ramp",
//	     "bounds": "([0,2],[0,20],[0,0])"},
//	    {"type": "filters.stats"}
//	]}`)
//	n, err := m.Execute()
//
//	views, _ := m.Views()
//	for v := range views.All() {
//	    x, _ := pointview.Field[float64](v, dimension.X, 0)
//	    fmt.Println(v.ID(), v.Len(), x)
//	}
//
// # Lifecycle
//
// A Manager is constructed, loaded, then executed:
//
//	StateConstructed --load--> StateLoaded --execute--> StateExecuted
//	                                        \-----------> StateFailed
//
// Out-of-order calls fail with ErrInvalidState. Views, Metadata and Schema
// are available only in StateExecuted.
//
// # Streaming
//
// When every stage supports chunks (CanStreamExecute), ExecuteStreamed
// processes the input in bounded chunks and retains no views:
//
//	if err := m.ExecuteStreamed(); err != nil { ... }
//	fmt.Println(m.PointCount())
//
// # Errors
//
// Setup and run failures are *ParseError, *IOError and *ExecutionError,
// matching ErrParse, ErrIO and ErrExecution. Data access failures are
// ErrDimensionNotInSchema, ErrIndexOutOfRange, ErrIteratorExhausted and
// ErrUnknownDimension.
//
// # Storage and limits
//
// Stage file names resolve through a blobstore.BlobStore (local files by
// default, S3 or MinIO with WithBlobStore). WithResourceConfig bounds the
// memory held by point views and the number of branches running at once.
package pointflow
