package celestemap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotFormat selects the serialization of a Snapshot.
type SnapshotFormat int

const (
	MsgPack SnapshotFormat = iota
	JSON
	CBOR
)

func (f SnapshotFormat) String() string {
	switch f {
	case MsgPack:
		return "msgpack"
	case JSON:
		return "json"
	case CBOR:
		return "cbor"
	default:
		return fmt.Sprintf("invalid snapshot format %d", int(f))
	}
}

func ParseSnapshotFormat(s string) (SnapshotFormat, error) {
	switch strings.ToLower(s) {
	case "msgpack":
		return MsgPack, nil
	case "json":
		return JSON, nil
	case "cbor":
		return CBOR, nil
	default:
		return 0, fmt.Errorf("unknown snapshot format %q", s)
	}
}

// Snapshot is a self-describing form of a map keyed by element ids, used for
// backups and for handing a document to tools that do not speak the binary
// format. Strings must be valid UTF-8 for the JSON and CBOR formats.
type Snapshot struct {
	Package  string                      `json:"package,omitempty" msgpack:"package,omitempty" cbor:"package,omitempty"`
	Root     string                      `json:"root" msgpack:"root" cbor:"root"`
	Elements map[string]*SnapshotElement `json:"elements" msgpack:"elements" cbor:"elements"`
}

type SnapshotElement struct {
	Type       string         `json:"type" msgpack:"type" cbor:"type"`
	Parent     string         `json:"parent,omitempty" msgpack:"parent,omitempty" cbor:"parent,omitempty"`
	Attributes []SnapshotAttr `json:"attributes" msgpack:"attributes" cbor:"attributes"`
	Children   []string       `json:"children" msgpack:"children" cbor:"children"`
}

type SnapshotAttr struct {
	Name     string `json:"name" msgpack:"name" cbor:"name"`
	Encoding string `json:"encoding" msgpack:"encoding" cbor:"encoding"`
	Value    any    `json:"value" msgpack:"value" cbor:"value"`
}

// TakeSnapshot captures the attached elements of m with their ids.
func TakeSnapshot(m *Map) *Snapshot {
	t := m.Tree
	snap := &Snapshot{
		Package:  m.Package,
		Root:     t.RootID().String(),
		Elements: make(map[string]*SnapshotElement, t.Len()),
	}
	t.Walk(func(id ID, el *Element, depth int) bool {
		se := &SnapshotElement{
			Type:       el.typ,
			Attributes: make([]SnapshotAttr, 0, len(el.names)),
			Children:   make([]string, 0, len(el.children)),
		}
		if el.parent != nil {
			se.Parent = t.ID(el.parent).String()
		}
		for _, a := range el.Attrs() {
			se.Attributes = append(se.Attributes, SnapshotAttr{
				Name:     a.Name,
				Encoding: a.Value.enc.String(),
				Value:    snapshotValue(a.Value),
			})
		}
		for _, c := range el.children {
			se.Children = append(se.Children, t.ID(c).String())
		}
		snap.Elements[id.String()] = se
		return true
	})
	return snap
}

// snapshotValue spells non-finite floats as strings, which JSON cannot carry
// as numbers.
func snapshotValue(v Value) any {
	if v.enc.isFloat() {
		f := float64(v.f)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 32)
		}
	}
	return v.Any()
}

// Restore rebuilds a Map from a snapshot, keeping the recorded ids. Elements
// not reachable from the root are ignored.
func (snap *Snapshot) Restore() (*Map, error) {
	rootID, err := uuid.Parse(snap.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot root id %q: %w", ErrFormat, snap.Root, err)
	}

	ids := make(map[*Element]ID, len(snap.Elements))
	visited := make(map[string]bool, len(snap.Elements))
	var build func(key string, parent *Element) (*Element, error)
	build = func(key string, parent *Element) (*Element, error) {
		se := snap.Elements[key]
		if se == nil {
			return nil, fmt.Errorf("%w: snapshot element %s does not exist", ErrFormat, key)
		}
		if visited[key] {
			return nil, fmt.Errorf("%w: snapshot element %s appears more than once", ErrFormat, key)
		}
		visited[key] = true
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot element id %q: %w", ErrFormat, key, err)
		}

		el := NewElement(se.Type)
		ids[el] = id
		for _, a := range se.Attributes {
			enc, err := ParseEncoding(a.Encoding)
			if err != nil {
				return nil, err
			}
			raw := a.Value
			if s, ok := raw.(string); ok && enc.isFloat() {
				f, err := strconv.ParseFloat(s, 32)
				if err != nil {
					return nil, fmt.Errorf("%w: %s.%s: %w", ErrFormat, se.Type, a.Name, err)
				}
				raw = f
			}
			v, err := enc.Coerce(raw)
			if err != nil {
				return nil, elementErrf(el, a.Name, err, "")
			}
			el.SetAttr(a.Name, v)
		}

		if parent != nil {
			el.parent = parent
			parent.children = append(parent.children, el)
		}
		for _, c := range se.Children {
			if _, err := build(c, el); err != nil {
				return nil, err
			}
		}
		return el, nil
	}

	root, err := build(rootID.String(), nil)
	if err != nil {
		return nil, err
	}
	return &Map{Package: snap.Package, Tree: newTreeWithIDs(root, ids)}, nil
}

// EncodeSnapshot serializes a snapshot of m.
func EncodeSnapshot(m *Map, f SnapshotFormat) ([]byte, error) {
	snap := TakeSnapshot(m)
	switch f {
	case MsgPack:
		var b Buffer
		enc := msgpack.GetEncoder()
		enc.ResetDict(&b, nil)
		enc.SetSortMapKeys(true)
		err := enc.Encode(snap)
		msgpack.PutEncoder(enc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode msgpack snapshot: %w", err)
		}
		return b.Bytes(), nil
	case JSON:
		raw, err := json.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON snapshot: %w", err)
		}
		return raw, nil
	case CBOR:
		raw, err := cbor.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("failed to encode CBOR snapshot: %w", err)
		}
		return raw, nil
	default:
		panic("unsupported snapshot format")
	}
}

// DecodeSnapshot parses a serialized snapshot and restores the map.
func DecodeSnapshot(data []byte, f SnapshotFormat) (*Map, error) {
	var snap Snapshot
	switch f {
	case MsgPack:
		var r bytes.Reader
		r.Reset(data)
		dec := msgpack.GetDecoder()
		dec.ResetDict(&r, nil)
		err := dec.Decode(&snap)
		msgpack.PutDecoder(dec)
		if err != nil {
			return nil, dataErrf(data, 0, err, "failed to decode msgpack snapshot")
		}
	case JSON:
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, dataErrf(data, 0, err, "failed to decode JSON snapshot")
		}
	case CBOR:
		if err := cbor.Unmarshal(data, &snap); err != nil {
			return nil, dataErrf(data, 0, err, "failed to decode CBOR snapshot")
		}
	default:
		panic("unsupported snapshot format")
	}
	return snap.Restore()
}
