package snl

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Writer builds one outgoing message into a growable buffer: header,
// optional fixed payload, then a tree of attributes, with lengths
// patched up on close/finalize. Positions are kept as integer offsets so
// buffer growth never invalidates bookkeeping.
//
// After any encoding failure the Writer is poisoned: later calls are
// no-ops and Finalize returns the first error. BeginMessage clears the
// state, making the buffer reusable.
type Writer struct {
	buf    []byte
	hdrOff int
	nested []int // offsets of open nested attribute headers
	open   bool
	err    error
}

// NewWriter returns an empty Writer. A single Writer must not be used
// for more than one in-progress message at a time.
func NewWriter() *Writer {
	return &Writer{hdrOff: -1}
}

// BeginMessage starts a new message of the given type and flags,
// discarding any previous content or error state.
func (w *Writer) BeginMessage(typ, flags uint16) {
	w.buf = w.buf[:0]
	w.nested = w.nested[:0]
	w.err = nil
	w.hdrOff = 0
	w.buf = append(w.buf, make([]byte, hdrLen)...)
	hostOrder.PutUint16(w.buf[w.hdrOff+4:], typ)
	hostOrder.PutUint16(w.buf[w.hdrOff+6:], flags)
	w.open = true
}

// SetSeq stamps the sequence number into the open message header.
func (w *Writer) SetSeq(seq uint32) {
	if w.err != nil {
		return
	}
	if !w.open {
		w.fail("no open message")
		return
	}
	hostOrder.PutUint32(w.buf[w.hdrOff+8:], seq)
}

func (w *Writer) fail(reason string) {
	if w.err == nil {
		w.err = &EncodingError{Reason: reason}
	}
}

func (w *Writer) pad() {
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
}

// ReserveRaw appends n zero bytes at a 4-byte-aligned offset and returns
// them, for fixed payloads such as rtmsg or ifinfomsg. The returned
// slice must be filled before the next call on w: later appends may
// reallocate the buffer.
func (w *Writer) ReserveRaw(n int) []byte {
	if w.err != nil {
		return nil
	}
	if !w.open {
		w.fail("no open message")
		return nil
	}
	w.pad()
	off := len(w.buf)
	w.buf = append(w.buf, make([]byte, n)...)
	return w.buf[off : off+n : off+n]
}

// AddAttr appends one attribute: header, payload, alignment pad. It
// fails if the payload exceeds the 16-bit length field's capacity.
func (w *Writer) AddAttr(typ uint16, data []byte) error {
	if w.err != nil {
		return w.err
	}
	if !w.open {
		w.fail("no open message")
		return w.err
	}
	if len(data) > maxAttrData {
		w.fail(fmt.Sprintf("attribute %d: payload %d exceeds length field", typ, len(data)))
		return w.err
	}
	w.pad()
	var hdr [attrHdrLen]byte
	hostOrder.PutUint16(hdr[0:2], uint16(attrHdrLen+len(data)))
	hostOrder.PutUint16(hdr[2:4], typ)
	w.buf = append(w.buf, hdr[:]...)
	w.buf = append(w.buf, data...)
	w.pad()
	return nil
}

// AddAttrUint32 appends a 4-byte scalar attribute in host byte order.
func (w *Writer) AddAttrUint32(typ uint16, v uint32) error {
	var b [4]byte
	hostOrder.PutUint32(b[:], v)
	return w.AddAttr(typ, b[:])
}

// AddAttrString appends a NUL-terminated string attribute.
func (w *Writer) AddAttrString(typ uint16, s string) error {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return w.AddAttr(typ, b)
}

// BeginNested opens a nested attribute set and returns a handle for
// EndNested. The nested length field is patched when the handle closes.
func (w *Writer) BeginNested(typ uint16) int {
	if w.err != nil {
		return -1
	}
	if !w.open {
		w.fail("no open message")
		return -1
	}
	w.pad()
	off := len(w.buf)
	var hdr [attrHdrLen]byte
	hostOrder.PutUint16(hdr[2:4], typ|unix.NLA_F_NESTED)
	w.buf = append(w.buf, hdr[:]...)
	w.nested = append(w.nested, off)
	return off
}

// EndNested closes the most recently opened nested attribute. Closing
// out of order poisons the Writer.
func (w *Writer) EndNested(handle int) error {
	if w.err != nil {
		return w.err
	}
	if len(w.nested) == 0 || w.nested[len(w.nested)-1] != handle {
		w.fail("mismatched nested attribute close")
		return w.err
	}
	w.nested = w.nested[:len(w.nested)-1]
	length := len(w.buf) - handle
	if length > 0xffff {
		w.fail("nested attribute exceeds length field")
		return w.err
	}
	hostOrder.PutUint16(w.buf[handle:handle+2], uint16(length))
	return nil
}

// Finalize pads the message to a 4-byte boundary, patches the header's
// total length, and returns a read-only view suitable for Session.Send.
// It fails if the Writer is poisoned or a nested attribute is still
// open; no partial message is returned. The view stays valid until the
// next BeginMessage.
func (w *Writer) Finalize() (Message, error) {
	if w.err != nil {
		return Message{}, w.err
	}
	if !w.open {
		w.fail("no open message")
		return Message{}, w.err
	}
	if len(w.nested) != 0 {
		w.fail("unterminated nested attribute")
		return Message{}, w.err
	}
	w.pad()
	total := len(w.buf) - w.hdrOff
	hostOrder.PutUint32(w.buf[w.hdrOff:], uint32(total))
	w.open = false
	raw := w.buf[w.hdrOff:]
	h, err := parseHeader(raw)
	if err != nil {
		return Message{}, err
	}
	return Message{Header: h, Data: raw[hdrLen:], raw: raw}, nil
}
