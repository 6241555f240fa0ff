// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("surveys/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	m := pointflow.NewManager(pointflow.WithBlobStore(store))
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads for large point files
//   - CRC32C checksums on single-part writes
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
