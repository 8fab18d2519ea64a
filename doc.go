/*
Package celestemap reads and writes Celeste binary map files and provides the
element tree that editors operate on.

A map is a tree of elements. Each element has a type name, a list of named
attributes and a list of child elements. Every attribute value carries the
encoding it is stored with, so that a load, edit, save cycle keeps the types
intact.

# File layout

	string      header ("CELESTE MAP")
	string      package name
	uint16      N, string table size
	string × N  string table; an entry's index is its position
	element     root element

	element = type:uint16 attrCount:uint8 attr* childCount:uint16 element*
	attr    = name:uint16 encoding:uint8 value

Type and attribute names are indices into the string table. Integers are
little-endian. A string is a base-128 length (7 bits per byte, high bit set
on all bytes but the last, at most 5 bytes) followed by one byte per character.

**Values** by encoding:

  - bool: 1 byte, any nonzero byte reads as true.
  - byte, short: uint8, uint16.
  - int, long: 4 bytes; int is signed, stored as its two's complement.
  - float, double: IEEE 754 single precision, little-endian. Double is not used
    by the game and shares the float layout.
  - lookup: uint16 string table index; the value is the referenced string.
  - string: a string as above.
  - rlestring: uint16 byte count, then (repeat, char) byte pairs.

**Writing.** The string table precedes the tree, so Encode first walks the
tree to intern every name into a fresh table, then writes the table and the
elements. Attribute and child order is kept, but re-encoding a file is only
guaranteed to give back the same tree, not the same bytes.

# Tree invariants

An element's parent link and its parent's child list change together, through
Element.SetParent and Element.Delete only. SetParent refuses to create cycles,
and the document root can be neither deleted nor moved. Tree assigns ids to
elements so that callers can refer to them across edits; Document records
edits that can be undone and redone.
*/
package celestemap
