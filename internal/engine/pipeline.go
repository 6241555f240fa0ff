package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/hupe1980/pointflow/codec"
	"github.com/hupe1980/pointflow/stage"
)

// Node is one stage of a parsed pipeline.
type Node struct {
	Tag     string
	Type    string
	Kind    stage.Kind
	Options *stage.Options
	Inputs  []string
	Stage   stage.Stage

	explicitInputs bool
	inputs         []*Node
	consumers      []*Node
}

// Pipeline is a validated stage graph. Stages are created and configured
// during Parse, so a Pipeline runs at most once.
type Pipeline struct {
	nodes []*Node
	order []*Node
	byTag map[string]*Node
}

// Nodes returns the stages in declaration order.
func (p *Pipeline) Nodes() []*Node { return p.nodes }

// Node returns the stage tagged tag.
func (p *Pipeline) Node(tag string) (*Node, bool) {
	n, ok := p.byTag[tag]
	return n, ok
}

// Terminals returns the stages whose output no other stage consumes, in
// declaration order.
func (p *Pipeline) Terminals() []*Node {
	var out []*Node
	for _, n := range p.nodes {
		if len(n.consumers) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Streamable reports whether every stage can process chunks.
func (p *Pipeline) Streamable() bool {
	for _, n := range p.nodes {
		if !stage.Streamable(n.Stage) {
			return false
		}
	}
	return true
}

var tagRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Parse parses a pipeline description: either {"pipeline": [...]} or a bare
// array of stages. A stage is a file name, whose reader or writer type is
// inferred from the extension, or an object with "type", optional "tag",
// optional "inputs" and any number of options. Option order is preserved and
// array values become repeated options.
func Parse(data []byte, reg *stage.Registry, c codec.Codec) (*Pipeline, error) {
	if c == nil {
		c = codec.Default
	}
	raws, err := splitStages(data, c)
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, parseErrorf(-1, nil, "pipeline has no stages")
	}

	nodes := make([]*Node, 0, len(raws))
	taken := make(map[string]bool)
	onlyReaders := true
	for i, raw := range raws {
		n, err := parseNode(i, len(raws), raw, onlyReaders, reg, c)
		if err != nil {
			return nil, err
		}
		if n.Kind != stage.KindReader {
			onlyReaders = false
		}
		if n.Tag != "" {
			if taken[n.Tag] {
				return nil, parseErrorf(i, nil, "duplicate tag %q", n.Tag)
			}
			taken[n.Tag] = true
		}
		nodes = append(nodes, n)
	}
	assignTags(nodes, taken)

	p := &Pipeline{nodes: nodes, byTag: make(map[string]*Node, len(nodes))}
	for _, n := range nodes {
		p.byTag[n.Tag] = n
	}
	if err := p.link(); err != nil {
		return nil, err
	}
	if err := p.sort(); err != nil {
		return nil, err
	}
	return p, nil
}

func splitStages(data []byte, c codec.Codec) ([]codec.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, parseErrorf(-1, nil, "empty pipeline description")
	}
	var raws []codec.RawMessage
	switch trimmed[0] {
	case '[':
		if err := c.Unmarshal(trimmed, &raws); err != nil {
			return nil, parseErrorf(-1, err, "invalid JSON")
		}
	case '{':
		var doc struct {
			Pipeline *[]codec.RawMessage `json:"pipeline"`
		}
		if err := c.Unmarshal(trimmed, &doc); err != nil {
			return nil, parseErrorf(-1, err, "invalid JSON")
		}
		if doc.Pipeline == nil {
			return nil, parseErrorf(-1, nil, `missing "pipeline" array`)
		}
		raws = *doc.Pipeline
	default:
		return nil, parseErrorf(-1, nil, "expected a JSON object or array")
	}
	return raws, nil
}

func parseNode(i, count int, raw codec.RawMessage, onlyReaders bool, reg *stage.Registry, c codec.Codec) (*Node, error) {
	raw = bytes.TrimSpace(raw)
	n := &Node{Options: stage.NewOptions()}
	switch {
	case len(raw) > 0 && raw[0] == '"':
		var filename string
		if err := c.Unmarshal(raw, &filename); err != nil {
			return nil, parseErrorf(i, err, "invalid stage")
		}
		n.Options.Add("filename", filename)
	case len(raw) > 0 && raw[0] == '{':
		if err := parseObject(i, raw, n, c); err != nil {
			return nil, err
		}
	default:
		return nil, parseErrorf(i, nil, "stage must be a string or an object")
	}

	if n.Type == "" {
		typ, err := inferType(i, count, n.Options, onlyReaders, reg)
		if err != nil {
			return nil, err
		}
		n.Type = typ
	}
	s, err := reg.New(n.Type)
	if err != nil {
		return nil, parseErrorf(i, err, "type %q", n.Type)
	}
	if err := s.Configure(n.Options); err != nil {
		return nil, parseErrorf(i, err, "%s options", n.Type)
	}
	n.Stage = s
	n.Kind = s.Kind()
	if n.Kind == stage.KindReader && n.explicitInputs {
		return nil, parseErrorf(i, nil, "reader %s cannot have inputs", n.Type)
	}
	return n, nil
}

// inferType resolves a stage given only by file name: leading stages are
// readers and the last stage is a writer.
func inferType(i, count int, opts *stage.Options, onlyReaders bool, reg *stage.Registry) (string, error) {
	filename, ok := opts.Get("filename")
	if !ok {
		return "", parseErrorf(i, nil, `stage has no "type"`)
	}
	if i == count-1 && i > 0 {
		if typ, ok := reg.InferWriter(filename); ok {
			return typ, nil
		}
		return "", parseErrorf(i, stage.ErrUnknownStage, "cannot infer writer for %q", filename)
	}
	if !onlyReaders {
		return "", parseErrorf(i, nil, "cannot infer stage type for %q after a non-reader stage", filename)
	}
	if typ, ok := reg.InferReader(filename); ok {
		return typ, nil
	}
	return "", parseErrorf(i, stage.ErrUnknownStage, "cannot infer reader for %q", filename)
}

// parseObject reads the members of a stage object in document order.
func parseObject(i int, raw codec.RawMessage, n *Node, c codec.Codec) error {
	dec := c.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return parseErrorf(i, err, "invalid stage")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return parseErrorf(i, err, "invalid stage")
		}
		key, _ := tok.(string)
		var val codec.RawMessage
		if err := dec.Decode(&val); err != nil {
			return parseErrorf(i, err, "option %q", key)
		}
		switch key {
		case "type":
			if err := c.Unmarshal(val, &n.Type); err != nil || n.Type == "" {
				return parseErrorf(i, err, `"type" must be a non-empty string`)
			}
		case "tag":
			if err := c.Unmarshal(val, &n.Tag); err != nil || !tagRe.MatchString(n.Tag) {
				return parseErrorf(i, err, "invalid tag %s", val)
			}
		case "inputs":
			inputs, err := optionValues(val, c)
			if err != nil {
				return parseErrorf(i, err, `"inputs"`)
			}
			n.Inputs = append(n.Inputs, inputs...)
			n.explicitInputs = true
		default:
			vals, err := optionValues(val, c)
			if err != nil {
				return parseErrorf(i, err, "option %q", key)
			}
			for _, v := range vals {
				n.Options.Add(key, v)
			}
		}
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return parseErrorf(i, err, "invalid stage")
	}
	return nil
}

// optionValues flattens one JSON value into option strings. Arrays become
// repeated values, objects are kept as compact JSON text and null is
// dropped.
func optionValues(raw codec.RawMessage, c codec.Codec) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := c.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	case '[':
		var items []codec.RawMessage
		if err := c.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) > 0 && item[0] == '[' {
				return nil, errors.New("nested arrays are not supported")
			}
			vals, err := optionValues(item, c)
			if err != nil {
				return nil, err
			}
			out = append(out, vals...)
		}
		return out, nil
	case '{':
		var buf bytes.Buffer
		if err := c.Compact(&buf, raw); err != nil {
			return nil, err
		}
		return []string{buf.String()}, nil
	case 'n':
		return nil, nil
	default:
		return []string{string(raw)}, nil
	}
}

// assignTags gives untagged stages a name derived from their type, for
// example readers_faux1, skipping tags already in use.
func assignTags(nodes []*Node, taken map[string]bool) {
	counts := make(map[string]int)
	for _, n := range nodes {
		if n.Tag != "" {
			continue
		}
		base := strings.ReplaceAll(n.Type, ".", "_")
		for {
			counts[base]++
			tag := base + strconv.Itoa(counts[base])
			if !taken[tag] {
				n.Tag = tag
				taken[tag] = true
				break
			}
		}
	}
}

// link resolves inputs. A stage without explicit inputs consumes the
// readers declared since the last non-reader, or the previous stage.
func (p *Pipeline) link() error {
	var pending []string
	for i, n := range p.nodes {
		if !n.explicitInputs && n.Kind != stage.KindReader {
			n.Inputs = append([]string(nil), pending...)
		}
		if n.Kind != stage.KindReader && len(n.Inputs) == 0 {
			return parseErrorf(i, nil, "%s has no input", n.Tag)
		}
		seen := make(map[string]bool, len(n.Inputs))
		for _, tag := range n.Inputs {
			if seen[tag] {
				return parseErrorf(i, nil, "%s lists input %q twice", n.Tag, tag)
			}
			seen[tag] = true
			src, ok := p.byTag[tag]
			if !ok {
				return parseErrorf(i, nil, "%s: unknown input %q", n.Tag, tag)
			}
			n.inputs = append(n.inputs, src)
			src.consumers = append(src.consumers, n)
		}
		if n.Kind == stage.KindReader {
			pending = append(pending, n.Tag)
		} else {
			pending = []string{n.Tag}
		}
	}
	return nil
}

// sort orders the stages so that every stage follows its inputs, keeping
// declaration order where possible.
func (p *Pipeline) sort() error {
	placed := make(map[*Node]bool, len(p.nodes))
	p.order = make([]*Node, 0, len(p.nodes))
	for len(p.order) < len(p.nodes) {
		progress := false
		for _, n := range p.nodes {
			if placed[n] || !allPlaced(n.inputs, placed) {
				continue
			}
			placed[n] = true
			p.order = append(p.order, n)
			progress = true
		}
		if !progress {
			var stuck []string
			for _, n := range p.nodes {
				if !placed[n] {
					stuck = append(stuck, n.Tag)
				}
			}
			return parseErrorf(-1, nil, "cycle between stages %s", strings.Join(stuck, ", "))
		}
	}
	return nil
}

func allPlaced(nodes []*Node, placed map[*Node]bool) bool {
	for _, n := range nodes {
		if !placed[n] {
			return false
		}
	}
	return true
}

// String returns the tag and type of n.
func (n *Node) String() string {
	return fmt.Sprintf("%s (%s)", n.Tag, n.Type)
}
