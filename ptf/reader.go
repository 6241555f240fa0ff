package ptf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"github.com/hupe1980/pointflow/internal/conv"
	pfhash "github.com/hupe1980/pointflow/internal/hash"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/srs"
)

// Reader decodes a point file block by block.
type Reader struct {
	r      *bufio.Reader
	crc    hash.Hash32
	header Header
	layout *layout.Layout
	srs    srs.SpatialReference

	block     int
	remaining uint64
	payload   []byte
	done      bool
	// left is the number of unread bytes after the header, or -1.
	left int64
}

// NewReader reads the header, dimension table and spatial reference from r.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderSize(r, -1)
}

// NewReaderSize is like NewReader for a file of size bytes. Sections the
// header declares larger than the rest of the file are rejected before they
// are allocated. A negative size disables the check.
func NewReaderSize(r io.Reader, size int64) (*Reader, error) {
	pr := &Reader{r: bufio.NewReader(r), crc: pfhash.NewCRC32C(), left: -1}

	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(pr.r, hdr); err != nil {
		return nil, fmt.Errorf("ptf: read header: %w", err)
	}
	if err := pr.header.UnmarshalBinary(hdr); err != nil {
		return nil, err
	}
	if size >= 0 {
		pr.left = max(size-HeaderSize, 0)
		need := uint64(pr.header.DimCount)*dimEntrySize + uint64(pr.header.WKTLen) + uint64(pr.header.PROJ4Len) + trailerSize
		if need > uint64(pr.left) {
			return nil, fmt.Errorf("%w: header declares %d bytes, file has %d", ErrCorrupted, need, pr.left)
		}
	}

	table, err := pr.readN(uint64(pr.header.DimCount) * dimEntrySize)
	if err != nil {
		return nil, err
	}
	if pr.layout, err = decodeDimTable(table, pr.header.PointSize); err != nil {
		return nil, err
	}

	wkt, err := pr.readN(uint64(pr.header.WKTLen))
	if err != nil {
		return nil, err
	}
	proj, err := pr.readN(uint64(pr.header.PROJ4Len))
	if err != nil {
		return nil, err
	}
	pr.srs = srs.SpatialReference{WKT: string(wkt), PROJ4: string(proj)}
	pr.remaining = pr.header.PointCount
	return pr, nil
}

// readN reads n checksummed bytes.
func (r *Reader) readN(n uint64) ([]byte, error) {
	if r.left >= 0 {
		if n > uint64(r.left) {
			return nil, fmt.Errorf("%w: section of %d bytes exceeds file", ErrCorrupted, n)
		}
		r.left -= int64(n)
	}
	size, err := conv.Uint64ToInt(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	_, _ = r.crc.Write(buf)
	return buf, nil
}

// Header returns the decoded file header.
func (r *Reader) Header() Header { return r.header }

// Layout returns the layout of the records in the file.
func (r *Reader) Layout() *layout.Layout { return r.layout }

// SRS returns the spatial reference stored in the file.
func (r *Reader) SRS() srs.SpatialReference { return r.srs }

// Next returns the records of the next block. The slice is reused by the
// following call. After the last block the trailing checksum is verified
// and Next returns io.EOF.
func (r *Reader) Next() ([]byte, error) {
	if r.done {
		return nil, io.EOF
	}
	if r.remaining == 0 {
		return nil, r.finish()
	}

	hdr, err := r.readN(blockHeaderSize)
	if err != nil {
		return nil, err
	}
	rawSize := binary.LittleEndian.Uint32(hdr[0:])
	compSize := binary.LittleEndian.Uint32(hdr[4:])

	points := min(r.remaining, uint64(r.header.BlockPoints))
	if uint64(rawSize) != points*uint64(r.header.PointSize) {
		return nil, fmt.Errorf("%w: block %d holds %d bytes, want %d points", ErrCorrupted, r.block, rawSize, points)
	}

	stored := rawSize
	if compSize != 0 {
		if compSize >= rawSize {
			return nil, fmt.Errorf("%w: block %d stored size %d", ErrCorrupted, r.block, compSize)
		}
		stored = compSize
	}
	payload, err := r.readN(uint64(stored))
	if err != nil {
		return nil, err
	}

	n, _ := conv.Uint32ToInt(rawSize)
	if cap(r.payload) < n {
		r.payload = make([]byte, n)
	}
	out := r.payload[:n]
	if err := decodeBlock(out, payload, compSize != 0, r.header.Compression); err != nil {
		return nil, fmt.Errorf("%w: block %d: %v", ErrCorrupted, r.block, err)
	}
	r.block++
	r.remaining -= points
	return out, nil
}

func (r *Reader) finish() error {
	r.done = true
	var trailer [trailerSize]byte
	if _, err := io.ReadFull(r.r, trailer[:]); err != nil {
		return fmt.Errorf("%w: missing checksum: %v", ErrCorrupted, err)
	}
	if binary.LittleEndian.Uint32(trailer[:]) != r.crc.Sum32() {
		return fmt.Errorf("%w: payload checksum mismatch", ErrCorrupted)
	}
	return io.EOF
}

// ReadView appends every remaining point to b, converting to b's layout
// when it differs from the file's.
func (r *Reader) ReadView(b *pointview.Builder) (int, error) {
	total := 0
	for {
		n, err := r.ReadChunk(b)
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// ReadChunk appends the next block to b.
func (r *Reader) ReadChunk(b *pointview.Builder) (int, error) {
	raw, err := r.Next()
	if err != nil {
		return 0, err
	}
	if b.Layout().Equal(r.layout) {
		return b.AppendRecords(raw)
	}
	return appendConverted(b, r.layout, raw)
}

func appendConverted(b *pointview.Builder, from *layout.Layout, raw []byte) (int, error) {
	tmp, err := pointview.NewBuilder(from, pointview.WithCapacity(len(raw)/from.PointSize()))
	if err != nil {
		return 0, err
	}
	if _, err := tmp.AppendRecords(raw); err != nil {
		return 0, err
	}
	src := tmp.Build()
	defer src.Release()
	for idx := range src.PointIDs() {
		if _, err := b.CopyPoint(src, idx); err != nil {
			return idx, err
		}
	}
	return src.Len(), nil
}
