// Package stage defines the contract between the pipeline engine and the
// steps it runs, together with the built-in readers, filters and writers.
//
// # Stages
//
// A stage is created from a Registry by type name, configured once with an
// ordered Options bag and run once. Readers produce views, filters
// transform them and writers persist them:
//
//	readers.faux       synthetic points (constant, ramp, random, normal, grid)
//	readers.text       delimited text with a header of dimension names
//	readers.ptf        native point files
//	readers.arrow      Arrow IPC files
//	filters.range      keep points within dimension ranges
//	filters.assign     set dimension values
//	filters.head       keep the first points
//	filters.decimation keep every n-th point
//	filters.stats      per-dimension statistics in the stage metadata
//	filters.merge      merge all input views into one
//	writers.null       discard
//	writers.text       delimited text
//	writers.ptf        native point files
//	writers.arrow      Arrow IPC files
//	writers.sqlite     one table row per point
//
// Every stage accepts "spatialreference", "user_data" and "tag".
//
// # Streaming
//
// Readers implementing Source emit bounded chunks; filters and writers
// implementing Streamer process them one at a time. A pipeline whose stages
// all stream runs in bounded memory.
//
// # Files
//
// File names are resolved through Context.Store, so every file stage works
// against local disk, memory, S3 or MinIO alike, and file IO is throttled by
// Context.Resources.
package stage
