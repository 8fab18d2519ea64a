package celestemap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cespare/xxhash/v2"
)

// DefaultHeader is the magic string every map file starts with.
const DefaultHeader = "CELESTE MAP"

type Options struct {
	Header  string // magic header; DefaultHeader if empty
	Logger  *slog.Logger
	Verbose bool
}

func (o Options) withDefaults() Options {
	if o.Header == "" {
		o.Header = DefaultHeader
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) debug(msg string, attrs ...slog.Attr) {
	if o.Verbose {
		o.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
	}
}

// Map is a decoded map file: the package name stored after the header, and
// the element tree.
type Map struct {
	Package string
	Tree    *Tree
}

func NewMap(pkg string, root *Element) *Map {
	return &Map{Package: pkg, Tree: NewTree(root)}
}

// Decode parses a map file. On failure no part of the document is returned.
func Decode(data []byte, opt Options) (*Map, error) {
	opt = opt.withDefaults()
	b := NewBuffer(data)

	header, err := b.ReadString()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %w", ErrFormat, err)
	}
	if header != opt.Header {
		return nil, dataErrf(data, 0, ErrFormat, "invalid header %q, wanted %q", header, opt.Header)
	}

	pkg, err := b.ReadString()
	if err != nil {
		return nil, err
	}

	tbl, err := ReadStringTable(b)
	if err != nil {
		return nil, err
	}

	root, err := ReadElement(b, tbl, nil)
	if err != nil {
		return nil, err
	}

	if n := b.Remaining(); n > 0 {
		opt.Logger.LogAttrs(context.Background(), slog.LevelWarn, "celestemap: trailing data after root element", slog.String("package", pkg), slog.Int("bytes", n), hexAttr("tail", data[b.Off():b.Off()+min(n, 16)]))
	}

	m := NewMap(pkg, root)
	opt.debug("celestemap: decoded", slog.String("package", pkg), slog.Int("size", len(data)), slog.Int("strings", tbl.Len()), slog.Int("elements", m.Tree.Len()))
	return m, nil
}

// Encode serializes m. All strings are interned into a fresh string table
// before anything is written, since the table precedes the tree.
func Encode(m *Map, opt Options) ([]byte, error) {
	return EncodeRoot(m.Package, m.Tree.Root(), opt)
}

// EncodeRoot serializes a tree given by its root element.
func EncodeRoot(pkg string, root *Element, opt Options) ([]byte, error) {
	opt = opt.withDefaults()

	tbl := NewStringTable()
	intern(tbl, root)
	n := tbl.Len()

	var b Buffer
	b.AppendString(opt.Header)
	b.AppendString(pkg)
	if err := tbl.Write(&b); err != nil {
		return nil, err
	}
	if err := WriteElement(&b, tbl, root); err != nil {
		return nil, err
	}
	if tbl.Len() != n {
		panic(fmt.Errorf("string table grew from %d to %d entries while writing elements", n, tbl.Len()))
	}

	opt.debug("celestemap: encoded", slog.String("package", pkg), slog.Int("size", b.Len()), slog.Int("strings", n))
	return b.Bytes(), nil
}

// Fingerprint returns a hash of the encoded form of m, suitable for detecting
// changes between saves.
func (m *Map) Fingerprint() (uint64, error) {
	data, err := Encode(m, Options{})
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}
