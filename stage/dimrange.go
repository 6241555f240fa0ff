package stage

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hupe1980/pointflow/dimension"
)

// DimRange is a closed, open or half-open interval over one dimension,
// written "Name[lo:hi]". Brackets include the bound, parentheses exclude it,
// an empty bound is unbounded, and "Name![lo:hi]" negates the range.
type DimRange struct {
	ID             dimension.ID
	Lower, Upper   float64
	LowerInclusive bool
	UpperInclusive bool
	Negate         bool
}

var dimRangeRe = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9_]*)\s*(!?)\s*([\[\(])\s*([^:\]\)]*?)\s*:\s*([^:\]\)]*?)\s*([\]\)])\s*$`)

// ParseDimRange parses one range expression.
func ParseDimRange(text string) (DimRange, error) {
	m := dimRangeRe.FindStringSubmatch(text)
	if m == nil {
		return DimRange{}, fmt.Errorf("%w: range %q", ErrInvalidOption, text)
	}
	id, err := dimension.ByName(m[1])
	if err != nil {
		return DimRange{}, fmt.Errorf("%w: range %q: %v", ErrInvalidOption, text, err)
	}
	r := DimRange{
		ID:             id,
		Lower:          math.Inf(-1),
		Upper:          math.Inf(1),
		Negate:         m[2] == "!",
		LowerInclusive: m[3] == "[",
		UpperInclusive: m[6] == "]",
	}
	if m[4] != "" {
		if r.Lower, err = strconv.ParseFloat(m[4], 64); err != nil {
			return DimRange{}, fmt.Errorf("%w: range %q: lower bound", ErrInvalidOption, text)
		}
	}
	if m[5] != "" {
		if r.Upper, err = strconv.ParseFloat(m[5], 64); err != nil {
			return DimRange{}, fmt.Errorf("%w: range %q: upper bound", ErrInvalidOption, text)
		}
	}
	if r.Lower > r.Upper {
		return DimRange{}, fmt.Errorf("%w: range %q: lower bound above upper bound", ErrInvalidOption, text)
	}
	return r, nil
}

// ParseDimRanges parses a comma separated list of ranges.
func ParseDimRanges(text string) ([]DimRange, error) {
	var out []DimRange
	for _, part := range strings.Split(text, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := ParseDimRange(part)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Contains reports whether x satisfies the range, negation included.
func (r DimRange) Contains(x float64) bool {
	in := true
	switch {
	case x < r.Lower, x > r.Upper:
		in = false
	case x == r.Lower && !r.LowerInclusive:
		in = false
	case x == r.Upper && !r.UpperInclusive:
		in = false
	}
	if math.IsNaN(x) {
		in = false
	}
	return in != r.Negate
}

// String formats the range in the syntax accepted by ParseDimRange.
func (r DimRange) String() string {
	var sb strings.Builder
	sb.WriteString(r.ID.Name())
	if r.Negate {
		sb.WriteByte('!')
	}
	if r.LowerInclusive {
		sb.WriteByte('[')
	} else {
		sb.WriteByte('(')
	}
	if !math.IsInf(r.Lower, -1) {
		sb.WriteString(strconv.FormatFloat(r.Lower, 'g', -1, 64))
	}
	sb.WriteByte(':')
	if !math.IsInf(r.Upper, 1) {
		sb.WriteString(strconv.FormatFloat(r.Upper, 'g', -1, 64))
	}
	if r.UpperInclusive {
		sb.WriteByte(']')
	} else {
		sb.WriteByte(')')
	}
	return sb.String()
}
