package snl

import (
	"fmt"
	"io"
	"syscall"

	"golang.org/x/sys/unix"
)

// readOne returns the next wire message, draining buffered bytes from a
// prior datagram before reading the socket again.
func (s *Session) readOne() (Message, error) {
	if s.off >= s.datalen {
		if err := s.recv(); err != nil {
			return Message{}, err
		}
	}
	b := s.buf[s.off:s.datalen]
	h, err := parseHeader(b)
	if err != nil {
		// mid-header truncation is fatal to this read; drop the datagram
		s.off = s.datalen
		return Message{}, err
	}
	if int(h.Len) < hdrLen || int(h.Len) > len(b) {
		s.off = s.datalen
		return Message{}, &ParseError{Reason: fmt.Sprintf("message length %d out of range", h.Len)}
	}
	raw := b[:h.Len]
	s.off += align4(int(h.Len))
	return Message{Header: h, Data: raw[hdrLen:], raw: raw}, nil
}

// recv blocks for the next datagram, growing the receive buffer when the
// kernel reports a pending message larger than it.
func (s *Session) recv() error {
	for {
		n, _, err := unix.Recvfrom(s.fd, s.buf, unix.MSG_PEEK|unix.MSG_TRUNC)
		if err != nil {
			return &TransportError{Op: "recv", Err: err}
		}
		if n > len(s.buf) {
			s.buf = make([]byte, align4(n))
			continue
		}
		n, _, err = unix.Recvfrom(s.fd, s.buf, 0)
		if err != nil {
			return &TransportError{Op: "recv", Err: err}
		}
		if n == 0 {
			return &TransportError{Op: "recv", Err: io.EOF}
		}
		s.off = 0
		s.datalen = n
		return nil
	}
}

// ReadMessage returns the next raw message regardless of sequence
// number, for multicast/notification sockets where no request
// correlation applies. The returned view is invalidated by the next
// read call.
func (s *Session) ReadMessage() (Message, error) {
	return s.readOne()
}

// ReadReply returns the next message carrying the given sequence number.
// Messages belonging to other exchanges are copied onto a pending queue
// and delivered to their own waiter later, never dropped.
func (s *Session) ReadReply(seq uint32) (Message, error) {
	if m, ok := s.takePending(seq); ok {
		s.trackMultipart(m)
		return m, nil
	}
	for {
		m, err := s.readOne()
		if err != nil {
			return Message{}, err
		}
		if m.Header.Seq != seq {
			if s.discardStale(m, seq) {
				continue
			}
			s.pending.Add(m.Copy())
			continue
		}
		s.trackMultipart(m)
		return m, nil
	}
}

// discardStale reports whether m is a remnant of a multipart reply the
// caller abandoned by moving on to another sequence number. Remnants are
// dropped rather than queued: no waiter will ever claim them.
func (s *Session) discardStale(m Message, want uint32) bool {
	if s.multipart == 0 || s.multipart == want || m.Header.Seq != s.multipart {
		return false
	}
	if m.Header.Type == unix.NLMSG_DONE {
		s.multipart = 0
	}
	return true
}

// takePending extracts the first queued message matching seq, preserving
// the order of the rest.
func (s *Session) takePending(seq uint32) (Message, bool) {
	n := s.pending.Length()
	if n == 0 {
		return Message{}, false
	}
	var found Message
	ok := false
	for i := 0; i < n; i++ {
		m := s.pending.Remove().(Message)
		if !ok && m.Header.Seq == seq {
			found, ok = m, true
			continue
		}
		s.pending.Add(m)
	}
	return found, ok
}

func (s *Session) trackMultipart(m Message) {
	if m.Header.Flags&unix.NLM_F_MULTI == 0 {
		return
	}
	if m.Header.Type == unix.NLMSG_DONE {
		s.multipart = 0
	} else {
		s.multipart = m.Header.Seq
	}
}

// ReadReplyCode reads the acknowledgement for the given sequence number.
// It returns nil on a zero result code and a *ProtocolError carrying the
// kernel's errno otherwise.
func (s *Session) ReadReplyCode(seq uint32) error {
	m, err := s.ReadReply(seq)
	if err != nil {
		return err
	}
	if m.Header.Type != unix.NLMSG_ERROR {
		return &ParseError{Reason: fmt.Sprintf("unexpected reply type %d, want error/ack", m.Header.Type)}
	}
	return decodeErrMsg(m)
}

// decodeErrMsg decodes an NLMSG_ERROR payload: a signed result code, the
// offending request header, and optionally extended acknowledgement
// attributes.
func decodeErrMsg(m Message) error {
	if len(m.Data) < 4 {
		return &ParseError{Reason: "error message payload too short"}
	}
	code := int32(hostOrder.Uint32(m.Data[0:4]))
	if code == 0 {
		return nil
	}
	pe := &ProtocolError{Code: syscall.Errno(-code)}
	if m.Header.Flags&unix.NLM_F_ACK_TLVS != 0 {
		// extended-ack attributes follow the embedded request, which is
		// capped to its header when NLM_F_CAPPED is set
		skip := 4 + hdrLen
		if m.Header.Flags&unix.NLM_F_CAPPED == 0 {
			if oh, err := parseHeader(m.Data[4:]); err == nil {
				skip = 4 + align4(int(oh.Len))
			}
		}
		if skip <= len(m.Data) {
			forEachAttr(m.Data[skip:], func(a Attr) error {
				switch a.Type {
				case unix.NLMSGERR_ATTR_MSG:
					b := a.Data
					if len(b) > 0 && b[len(b)-1] == 0 {
						b = b[:len(b)-1]
					}
					pe.Msg = string(b)
				case unix.NLMSGERR_ATTR_OFFS:
					if len(a.Data) >= 4 {
						pe.Offset = hostOrder.Uint32(a.Data[0:4])
					}
				}
				return nil
			})
		}
	}
	return pe
}

// Reply is a lazy, finite, non-restartable stream of data messages
// produced by ReadReplyMulti. Once terminated by a done marker or an
// error message it stays terminated.
type Reply struct {
	s    *Session
	seq  uint32
	done bool
	err  error
}

// ReadReplyMulti returns a stream over the data messages of the
// multipart reply with the given sequence number.
func (s *Session) ReadReplyMulti(seq uint32) *Reply {
	return &Reply{s: s, seq: seq}
}

// Next returns the next data message of the stream. It reports false
// when the stream has terminated; consult Err to distinguish normal
// completion from failure.
func (r *Reply) Next() (Message, bool) {
	if r.done {
		return Message{}, false
	}
	m, err := r.s.ReadReply(r.seq)
	if err != nil {
		r.done = true
		r.err = err
		return Message{}, false
	}
	switch m.Header.Type {
	case unix.NLMSG_DONE:
		r.done = true
		r.s.multipart = 0
		return Message{}, false
	case unix.NLMSG_ERROR:
		// an error terminates the stream; a zero code is the final ack
		r.done = true
		r.err = decodeErrMsg(m)
		return Message{}, false
	}
	return m, true
}

// Err returns the error that terminated the stream, if any.
func (r *Reply) Err() error { return r.err }
