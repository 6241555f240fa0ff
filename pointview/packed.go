package pointview

import (
	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/internal/conv"
	"github.com/hupe1980/pointflow/layout"
)

type packStep struct {
	src   layout.Detail
	dst   dimension.Encoding
	width int
}

// plan validates types against the layout and returns the copy steps and the
// total packed size. Nothing is written before every dimension resolved.
func (v *View) plan(types []dimension.Type) ([]packStep, int, error) {
	total, err := v.layout.PackedSize(types)
	if err != nil {
		return nil, 0, err
	}
	steps := make([]packStep, len(types))
	for i, t := range types {
		d, _ := v.layout.Resolve(t.ID)
		steps[i] = packStep{src: d, dst: t.Encoding, width: t.Encoding.Size()}
	}
	return steps, total, nil
}

func (v *View) pack(dst []byte, idx int, steps []packStep) {
	rec := v.records.Record(idx)
	off := 0
	for _, s := range steps {
		conv.Convert(dst[off:off+s.width], s.dst, rec[s.src.Offset:], s.src.Encoding)
		off += s.width
	}
}

// PackedPoint returns the values of the requested dimensions of point idx,
// back to back in request order, each converted to its requested encoding.
//
// Duplicate dimensions are written once per occurrence. On error no buffer
// is returned.
func (v *View) PackedPoint(idx int, types []dimension.Type) ([]byte, error) {
	return v.AppendPackedPoint(nil, idx, types)
}

// AppendPackedPoint is like PackedPoint but appends to dst.
func (v *View) AppendPackedPoint(dst []byte, idx int, types []dimension.Type) ([]byte, error) {
	if err := v.checkIndex(idx); err != nil {
		return dst, err
	}
	steps, total, err := v.plan(types)
	if err != nil {
		return dst, err
	}
	start := len(dst)
	dst = append(dst, make([]byte, total)...)
	v.pack(dst[start:], idx, steps)
	return dst, nil
}

// PackedPoints packs every point of the view back to back.
func (v *View) PackedPoints(types []dimension.Type) ([]byte, error) {
	steps, total, err := v.plan(types)
	if err != nil {
		return nil, err
	}
	size, err := conv.MulInt(total, v.Len())
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	for i := 0; i < v.Len(); i++ {
		v.pack(out[i*total:], i, steps)
	}
	return out, nil
}
