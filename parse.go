package snl

import (
	"bytes"
	"fmt"
	"net/netip"
	"unsafe"
)

// The decode mechanism is a closed set of rule variants dispatched by a
// single decode call. Rules write through integer offsets into the
// target record; everything decoded is copied out of the message buffer.

type decoder interface {
	decode(a Attr, field unsafe.Pointer) error
}

func shortAttr(a Attr, want int) error {
	return &ParseError{Reason: fmt.Sprintf("attribute %d: payload %d bytes, want %d", a.Type, len(a.Data), want)}
}

type decUint8 struct{}

func (decUint8) decode(a Attr, field unsafe.Pointer) error {
	if len(a.Data) < 1 {
		return shortAttr(a, 1)
	}
	*(*uint8)(field) = a.Data[0]
	return nil
}

type decUint16 struct{}

func (decUint16) decode(a Attr, field unsafe.Pointer) error {
	if len(a.Data) < 2 {
		return shortAttr(a, 2)
	}
	*(*uint16)(field) = hostOrder.Uint16(a.Data)
	return nil
}

type decUint32 struct{}

func (decUint32) decode(a Attr, field unsafe.Pointer) error {
	if len(a.Data) < 4 {
		return shortAttr(a, 4)
	}
	*(*uint32)(field) = hostOrder.Uint32(a.Data)
	return nil
}

type decUint64 struct{}

func (decUint64) decode(a Attr, field unsafe.Pointer) error {
	if len(a.Data) < 8 {
		return shortAttr(a, 8)
	}
	*(*uint64)(field) = hostOrder.Uint64(a.Data)
	return nil
}

// decString copies a NUL-terminated string bounded by the attribute
// length.
type decString struct{}

func (decString) decode(a Attr, field unsafe.Pointer) error {
	b := a.Data
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	*(*string)(field) = string(b)
	return nil
}

// decIP copies a 4- or 16-byte address payload.
type decIP struct{}

func (decIP) decode(a Attr, field unsafe.Pointer) error {
	switch len(a.Data) {
	case 4:
		*(*netip.Addr)(field) = netip.AddrFrom4([4]byte(a.Data))
	case 16:
		*(*netip.Addr)(field) = netip.AddrFrom16([16]byte(a.Data))
	default:
		return &ParseError{Reason: fmt.Sprintf("attribute %d: bad address length %d", a.Type, len(a.Data))}
	}
	return nil
}

// decFlag records the attribute's presence.
type decFlag struct{}

func (decFlag) decode(a Attr, field unsafe.Pointer) error {
	*(*bool)(field) = true
	return nil
}

type decNested struct{ tab *Table }

func (d decNested) decode(a Attr, field unsafe.Pointer) error {
	return d.tab.parseAttrs(a.Data, field)
}

// AttrRule maps one attribute type to an offset in the target record and
// a decode variant.
type AttrRule struct {
	Type uint16
	Off  uintptr
	dec  decoder
}

func AttrUint8(typ uint16, off uintptr) AttrRule {
	return AttrRule{Type: typ, Off: off, dec: decUint8{}}
}
func AttrUint16(typ uint16, off uintptr) AttrRule {
	return AttrRule{Type: typ, Off: off, dec: decUint16{}}
}
func AttrUint32(typ uint16, off uintptr) AttrRule {
	return AttrRule{Type: typ, Off: off, dec: decUint32{}}
}
func AttrUint64(typ uint16, off uintptr) AttrRule {
	return AttrRule{Type: typ, Off: off, dec: decUint64{}}
}
func AttrString(typ uint16, off uintptr) AttrRule {
	return AttrRule{Type: typ, Off: off, dec: decString{}}
}
func AttrIP(typ uint16, off uintptr) AttrRule   { return AttrRule{Type: typ, Off: off, dec: decIP{}} }
func AttrFlag(typ uint16, off uintptr) AttrRule { return AttrRule{Type: typ, Off: off, dec: decFlag{}} }

// AttrNested recursively applies another table to the attribute's
// payload, against the same target record.
func AttrNested(typ uint16, tab *Table) AttrRule {
	return AttrRule{Type: typ, dec: decNested{tab: tab}}
}

// FieldRule copies one host-order scalar out of the family-specific
// fixed header preceding the attribute list.
type FieldRule struct {
	WireOff uintptr
	Off     uintptr
	size    int
}

func FieldUint8(wireOff, off uintptr) FieldRule {
	return FieldRule{WireOff: wireOff, Off: off, size: 1}
}
func FieldUint16(wireOff, off uintptr) FieldRule {
	return FieldRule{WireOff: wireOff, Off: off, size: 2}
}
func FieldUint32(wireOff, off uintptr) FieldRule {
	return FieldRule{WireOff: wireOff, Off: off, size: 4}
}

func (f FieldRule) decode(hdr []byte, tgt unsafe.Pointer) {
	field := unsafe.Add(tgt, f.Off)
	switch f.size {
	case 1:
		*(*uint8)(field) = hdr[f.WireOff]
	case 2:
		*(*uint16)(field) = hostOrder.Uint16(hdr[f.WireOff:])
	case 4:
		*(*uint32)(field) = hostOrder.Uint32(hdr[f.WireOff:])
	}
}

// Table drives the decode of one message family. Tables are immutable
// once constructed and shared read-only across parse calls.
type Table struct {
	HdrLen int // length of the fixed header; every FieldRule must fit inside it
	Fields []FieldRule
	Attrs  []AttrRule
}

// Parse decodes a message into tgt according to the table. Unknown
// attribute types are skipped; a known attribute shorter than its rule
// requires fails the whole parse, and the partially filled record must
// not be used.
func Parse[T any](t *Table, m Message, tgt *T) error {
	return t.parse(m, unsafe.Pointer(tgt))
}

func (t *Table) parse(m Message, tgt unsafe.Pointer) error {
	if len(m.Data) < t.HdrLen {
		return &ParseError{Reason: fmt.Sprintf("payload %d bytes, fixed header needs %d", len(m.Data), t.HdrLen)}
	}
	for _, f := range t.Fields {
		f.decode(m.Data[:t.HdrLen], tgt)
	}
	return t.parseAttrs(m.Data[t.HdrLen:], tgt)
}

func (t *Table) parseAttrs(b []byte, tgt unsafe.Pointer) error {
	return forEachAttr(b, func(a Attr) error {
		for i := range t.Attrs {
			r := &t.Attrs[i]
			if r.Type != a.Type {
				continue
			}
			return r.dec.decode(a, unsafe.Add(tgt, r.Off))
		}
		return nil // unknown attribute type: skip
	})
}
