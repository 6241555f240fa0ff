// Package ptf implements the native binary point file.
//
// A file is laid out as
//
//	header        64 bytes, see Header
//	dimensions    DimCount x (ID uint16, encoding ordinal uint16)
//	srs           WKT bytes, then PROJ.4 bytes
//	blocks        BlockCount x ([raw size uint32][stored size uint32][data])
//	checksum      CRC32C of everything between the header and the checksum
//
// All integers are little-endian. Records inside a block are packed with the
// layout given by the dimension table. A stored size of zero means the block
// is uncompressed; otherwise it is LZ4 or zstd compressed as named by the
// header.
package ptf
