// Package snl is a client for the kernel's routing-socket protocol over
// AF_NETLINK. It builds request messages, sends them, and decodes the
// kernel's replies, including multi-part dumps and asynchronous
// notifications, into typed records.
package snl

import (
	"os"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"
)

// Session owns one netlink socket and its receive state. It is not safe
// for concurrent use; callers issuing concurrent requests must serialize
// Send/ReadReply pairs per sequence number or demultiplex above it.
type Session struct {
	fd  int
	pid uint32
	seq uint32

	buf     []byte
	off     int
	datalen int

	multipart uint32       // sequence of an in-progress multipart reply; zero when none
	pending   *queue.Queue // copies of messages read for other sequence numbers
}

// Open creates and binds a netlink socket for the given family,
// typically NETLINK_ROUTE.
func Open(family int) (*Session, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, family)
	if err != nil {
		return nil, &TransportError{Op: "socket", Err: err}
	}
	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK}); err != nil {
		unix.Close(fd)
		return nil, &TransportError{Op: "bind", Err: err}
	}
	return newSession(fd), nil
}

func newSession(fd int) *Session {
	return &Session{
		fd:      fd,
		pid:     uint32(os.Getpid()),
		buf:     make([]byte, os.Getpagesize()*8),
		pending: queue.New(),
	}
}

// Close releases the socket and buffer. It is not idempotent: the
// Session must not be used, or closed again, afterwards.
func (s *Session) Close() error {
	err := unix.Close(s.fd)
	s.fd = -1
	s.buf = nil
	s.pending = nil
	return err
}

// Fd returns the underlying socket descriptor, for callers that apply
// socket timeouts or readiness polling before reading.
func (s *Session) Fd() int { return s.fd }

// NextSeq returns a fresh sequence number for an outgoing request.
func (s *Session) NextSeq() uint32 {
	s.seq++
	return s.seq
}

// Send writes one finalized message to the socket. Partial writes are a
// transport failure and are not retried.
func (s *Session) Send(m Message) error {
	n, err := unix.Write(s.fd, m.raw)
	if err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	if n != len(m.raw) {
		return &TransportError{Op: "send", Err: unix.EMSGSIZE}
	}
	return nil
}

// ResetReassembly discards buffered unread messages and any in-progress
// multipart state. Used when a caller abandons a dump mid-stream.
func (s *Session) ResetReassembly() {
	s.off = 0
	s.datalen = 0
	s.multipart = 0
}

// JoinGroup subscribes the socket to a multicast notification group
// (RTNLGRP_*).
func (s *Session) JoinGroup(group int) error {
	if err := unix.SetsockoptInt(s.fd, unix.SOL_NETLINK, unix.NETLINK_ADD_MEMBERSHIP, group); err != nil {
		return &TransportError{Op: "add-membership", Err: err}
	}
	return nil
}

// LeaveGroup drops a multicast group subscription.
func (s *Session) LeaveGroup(group int) error {
	if err := unix.SetsockoptInt(s.fd, unix.SOL_NETLINK, unix.NETLINK_DROP_MEMBERSHIP, group); err != nil {
		return &TransportError{Op: "drop-membership", Err: err}
	}
	return nil
}
