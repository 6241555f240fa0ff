package ptf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/internal/conv"
	"github.com/hupe1980/pointflow/internal/hash"
	"github.com/hupe1980/pointflow/layout"
)

const (
	// FormatMagic identifies point files (ASCII: "PTF0").
	FormatMagic = 0x30465450

	// FormatVersion is the current point file format version.
	FormatVersion uint32 = 1

	// HeaderSize is the size of the file header in bytes.
	HeaderSize = 64

	// DefaultBlockPoints is the number of points per compressed block.
	DefaultBlockPoints = 10000

	dimEntrySize = 4
	trailerSize  = 4
)

var (
	// ErrInvalidMagic is returned when a file has an invalid magic number.
	ErrInvalidMagic = errors.New("ptf: invalid magic number")

	// ErrInvalidVersion is returned when a file has an unsupported version.
	ErrInvalidVersion = errors.New("ptf: unsupported format version")

	// ErrCorrupted is returned when a file fails checksum or structural validation.
	ErrCorrupted = errors.New("ptf: file corrupted")

	// ErrClosed is returned when writing after Close.
	ErrClosed = errors.New("ptf: writer closed")

	// ErrRecordSize is returned when record bytes are not a whole number of points.
	ErrRecordSize = errors.New("ptf: record bytes are not a multiple of the point size")
)

// Header is the 64-byte header at the start of point files.
//
// All multi-byte fields are little-endian.
type Header struct {
	Magic       uint32      // 0x30465450 ("PTF0")
	Version     uint32      // Format version (currently 1)
	Flags       uint32      // Reserved, zero
	Compression Compression // Record block compression
	DimCount    uint32      // Entries in the dimension table
	PointSize   uint32      // Bytes per point record
	PointCount  uint64      // Total number of points
	BlockPoints uint32      // Points per full block
	BlockCount  uint32      // Number of record blocks
	WKTLen      uint32      // Length of the WKT string
	PROJ4Len    uint32      // Length of the PROJ.4 string
	Checksum    uint32      // CRC32C of bytes [0, 56)
}

// Validate checks that the header is structurally valid.
func (h *Header) Validate() error {
	if h.Magic != FormatMagic {
		return ErrInvalidMagic
	}
	if h.Version == 0 || h.Version > FormatVersion {
		return ErrInvalidVersion
	}
	if !h.Compression.Valid() {
		return fmt.Errorf("%w: unknown compression %d", ErrCorrupted, h.Compression)
	}
	if h.DimCount == 0 && h.PointCount > 0 {
		return fmt.Errorf("%w: points without dimensions", ErrCorrupted)
	}
	if h.PointCount > 0 && h.BlockPoints == 0 {
		return fmt.Errorf("%w: zero block size", ErrCorrupted)
	}
	if h.BlockPoints > 0 {
		want := (h.PointCount + uint64(h.BlockPoints) - 1) / uint64(h.BlockPoints)
		if want != uint64(h.BlockCount) {
			return fmt.Errorf("%w: %d blocks for %d points", ErrCorrupted, h.BlockCount, h.PointCount)
		}
	}
	return nil
}

// MarshalBinary encodes the header and fills in Checksum.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	buf[12] = byte(h.Compression)
	binary.LittleEndian.PutUint32(buf[16:20], h.DimCount)
	binary.LittleEndian.PutUint32(buf[20:24], h.PointSize)
	binary.LittleEndian.PutUint64(buf[24:32], h.PointCount)
	binary.LittleEndian.PutUint32(buf[32:36], h.BlockPoints)
	binary.LittleEndian.PutUint32(buf[36:40], h.BlockCount)
	binary.LittleEndian.PutUint32(buf[40:44], h.WKTLen)
	binary.LittleEndian.PutUint32(buf[44:48], h.PROJ4Len)

	h.Checksum = hash.CRC32C(buf[:56])
	binary.LittleEndian.PutUint32(buf[56:60], h.Checksum)
	return buf, nil
}

// UnmarshalBinary decodes and checksums a header.
func (h *Header) UnmarshalBinary(buf []byte) error {
	if len(buf) < HeaderSize {
		return io.ErrUnexpectedEOF
	}
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	if h.Magic != FormatMagic {
		return ErrInvalidMagic
	}
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.Flags = binary.LittleEndian.Uint32(buf[8:12])
	h.Compression = Compression(buf[12])
	h.DimCount = binary.LittleEndian.Uint32(buf[16:20])
	h.PointSize = binary.LittleEndian.Uint32(buf[20:24])
	h.PointCount = binary.LittleEndian.Uint64(buf[24:32])
	h.BlockPoints = binary.LittleEndian.Uint32(buf[32:36])
	h.BlockCount = binary.LittleEndian.Uint32(buf[36:40])
	h.WKTLen = binary.LittleEndian.Uint32(buf[40:44])
	h.PROJ4Len = binary.LittleEndian.Uint32(buf[44:48])
	h.Checksum = binary.LittleEndian.Uint32(buf[56:60])

	if h.Checksum != hash.CRC32C(buf[:56]) {
		return fmt.Errorf("%w: header checksum mismatch", ErrCorrupted)
	}
	return h.Validate()
}

func encodeDimTable(l *layout.Layout) []byte {
	details := l.Details()
	buf := make([]byte, len(details)*dimEntrySize)
	for i, d := range details {
		binary.LittleEndian.PutUint16(buf[i*dimEntrySize:], uint16(d.ID))
		binary.LittleEndian.PutUint16(buf[i*dimEntrySize+2:], uint16(d.Encoding.Ordinal()))
	}
	return buf
}

func decodeDimTable(buf []byte, pointSize uint32) (*layout.Layout, error) {
	types := make([]dimension.Type, 0, len(buf)/dimEntrySize)
	for off := 0; off+dimEntrySize <= len(buf); off += dimEntrySize {
		id := dimension.ID(binary.LittleEndian.Uint16(buf[off:]))
		enc, ok := dimension.EncodingFromOrdinal(int(binary.LittleEndian.Uint16(buf[off+2:])))
		if !ok || !id.Known() {
			return nil, fmt.Errorf("%w: bad dimension entry %d", ErrCorrupted, off/dimEntrySize)
		}
		types = append(types, dimension.Type{ID: id, Encoding: enc})
	}
	l, err := layout.New(types...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	size, err := conv.Uint32ToInt(pointSize)
	if err != nil || l.PointSize() != size {
		return nil, fmt.Errorf("%w: point size %d does not match dimension table", ErrCorrupted, pointSize)
	}
	return l, nil
}
