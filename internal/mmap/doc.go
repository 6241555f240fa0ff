// Package mmap maps point files read-only into memory.
//
// The local blob store opens files through this package so readers can
// decode headers and record blocks straight from the page cache:
//
//	m, err := mmap.Open("cloud.ptf")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix platforms use mmap(2) and madvise(2); Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// A Mapping is safe for concurrent reads. Close is idempotent, and callers
// must not touch a slice returned by Bytes after Close.
package mmap
