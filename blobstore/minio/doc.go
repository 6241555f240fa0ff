// Package minio stores point files in MinIO or another S3-compatible
// service (Ceph, Garage, SeaweedFS) through the MinIO Go client.
//
// # Usage
//
//	store, err := minio.Dial("localhost:9000", "minioadmin", "minioadmin", false,
//	    "surveys", "2024/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m := pointflow.NewManager(pointflow.WithBlobStore(store))
//
// Stage file names are keys below the root prefix, so a pipeline naming
// "tiles/a.ptf" reads surveys/2024/tiles/a.ptf. Writers stream through
// PutObject with an unknown size; readers fetch byte ranges with GetObject.
//
// Bring your own client with NewStore when you need TLS settings, a region
// or custom transport:
//
//	client, _ := minio.New("s3.example.com", &minio.Options{
//	    Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
//	    Secure: true,
//	})
//	store := minioblob.NewStore(client, "surveys", "")
package minio
