package snl

import (
	"fmt"
	"syscall"
)

// TransportError reports a failed socket operation. The underlying OS
// error is preserved and can be retrieved with errors.Unwrap/errors.Is.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("snl: %s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// EncodingError reports a writer-side failure: an attribute payload too
// large for the 16-bit length field, or unterminated nesting at finalize.
type EncodingError struct {
	Reason string
}

func (e *EncodingError) Error() string { return "snl: encode: " + e.Reason }

// ParseError reports a malformed or truncated message or attribute.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "snl: parse: " + e.Reason }

// ProtocolError is a non-zero result code embedded in the kernel's
// NLMSG_ERROR reply. Code is the kernel's errno; Offset and Msg carry
// extended acknowledgement data when the kernel provides it.
type ProtocolError struct {
	Code   syscall.Errno
	Offset uint32
	Msg    string
}

func (e *ProtocolError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("snl: kernel: %s (%v)", e.Msg, e.Code)
	}
	return fmt.Sprintf("snl: kernel: %v", e.Code)
}

func (e *ProtocolError) Unwrap() error { return e.Code }
