package snl

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	hdrLen      = unix.NLMSG_HDRLEN
	attrHdrLen  = unix.NLA_HDRLEN
	maxAttrData = 0xffff - attrHdrLen
)

// Header is the fixed 16-byte structure preceding every netlink message.
type Header struct {
	Len   uint32
	Type  uint16
	Flags uint16
	Seq   uint32
	Pid   uint32
}

// Message is a view over one wire message. For messages produced by a
// Session read it borrows the session's receive buffer and is invalidated
// by the next read call; use Copy to keep it.
type Message struct {
	Header Header
	Data   []byte // payload following the header
	raw    []byte // full wire image, header included
}

// Bytes returns the full wire image of the message.
func (m Message) Bytes() []byte { return m.raw }

// Copy returns a Message backed by its own buffer, safe to retain across
// subsequent reads.
func (m Message) Copy() Message {
	raw := make([]byte, len(m.raw))
	copy(raw, m.raw)
	return Message{Header: m.Header, Data: raw[hdrLen:], raw: raw}
}

func align4(n int) int { return (n + 3) &^ 3 }

func parseHeader(b []byte) (Header, error) {
	if len(b) < hdrLen {
		return Header{}, &ParseError{Reason: fmt.Sprintf("truncated header: %d bytes", len(b))}
	}
	return Header{
		Len:   hostOrder.Uint32(b[0:4]),
		Type:  hostOrder.Uint16(b[4:6]),
		Flags: hostOrder.Uint16(b[6:8]),
		Seq:   hostOrder.Uint32(b[8:12]),
		Pid:   hostOrder.Uint32(b[12:16]),
	}, nil
}

// Attr is one type-length-value record within a message payload.
type Attr struct {
	Type uint16
	Data []byte
}

// forEachAttr walks a 4-byte-aligned attribute sequence. The high flag
// bits of the attribute type are masked off before fn sees it.
func forEachAttr(b []byte, fn func(Attr) error) error {
	for len(b) > 0 {
		if len(b) < attrHdrLen {
			return &ParseError{Reason: fmt.Sprintf("truncated attribute header: %d bytes", len(b))}
		}
		alen := int(hostOrder.Uint16(b[0:2]))
		typ := hostOrder.Uint16(b[2:4]) &^ (unix.NLA_F_NESTED | unix.NLA_F_NET_BYTEORDER)
		if alen < attrHdrLen || alen > len(b) {
			return &ParseError{Reason: fmt.Sprintf("attribute %d: bad length %d", typ, alen)}
		}
		if err := fn(Attr{Type: typ, Data: b[attrHdrLen:alen]}); err != nil {
			return err
		}
		next := align4(alen)
		if next > len(b) {
			// the final attribute may omit its trailing pad
			next = len(b)
		}
		b = b[next:]
	}
	return nil
}
