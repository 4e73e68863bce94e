// Package rtnl implements link, address and route operations on top of
// the snl protocol engine.
package rtnl

import (
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/snlnet/snl"
)

// DumpLinks requests and decodes the full interface table.
func DumpLinks(s *snl.Session) ([]snl.Link, error) {
	return dump(s, unix.RTM_GETLINK, unix.SizeofIfInfomsg, 0, snl.ParseLink)
}

// DumpAddrs requests and decodes the full address table.
func DumpAddrs(s *snl.Session) ([]snl.Addr, error) {
	return dump(s, unix.RTM_GETADDR, unix.SizeofIfAddrmsg, 0, snl.ParseAddr)
}

// DumpRoutes requests and decodes the routing table with the given id;
// 0 means the kernel default.
func DumpRoutes(s *snl.Session, table uint32) ([]snl.Route, error) {
	return dump(s, unix.RTM_GETROUTE, unix.SizeofRtMsg, table, snl.ParseRoute)
}

func dump[T any](s *snl.Session, typ uint16, fixed int, table uint32, parse func(snl.Message) (T, error)) ([]T, error) {
	w := snl.NewWriter()
	w.BeginMessage(typ, unix.NLM_F_REQUEST|unix.NLM_F_DUMP)
	seq := s.NextSeq()
	w.SetSeq(seq)
	w.ReserveRaw(fixed)
	if table != 0 {
		w.AddAttrUint32(unix.RTA_TABLE, table)
	}
	m, err := w.Finalize()
	if err != nil {
		return nil, err
	}
	if err := s.Send(m); err != nil {
		return nil, err
	}
	var out []T
	rs := s.ReadReplyMulti(seq)
	for {
		m, ok := rs.Next()
		if !ok {
			break
		}
		rec, err := parse(m)
		if err != nil {
			s.ResetReassembly()
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rs.Err()
}

// LinkIndexByName resolves an interface name to its index via an
// RTM_GETLINK request carrying IFLA_IFNAME.
func LinkIndexByName(s *snl.Session, name string) (uint32, error) {
	w := snl.NewWriter()
	w.BeginMessage(unix.RTM_GETLINK, unix.NLM_F_REQUEST|unix.NLM_F_ACK)
	seq := s.NextSeq()
	w.SetSeq(seq)
	w.ReserveRaw(unix.SizeofIfInfomsg)
	w.AddAttrString(unix.IFLA_IFNAME, name)
	m, err := w.Finalize()
	if err != nil {
		return 0, err
	}
	if err := s.Send(m); err != nil {
		return 0, err
	}
	rs := s.ReadReplyMulti(seq)
	reply, ok := rs.Next()
	if !ok {
		if err := rs.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("rtnl: no such link %q", name)
	}
	link, err := snl.ParseLink(reply)
	if err != nil {
		return 0, err
	}
	// the terminating ack follows the link reply
	rs.Next()
	if err := rs.Err(); err != nil {
		return 0, err
	}
	return link.Index, nil
}

// AddRoute installs a unicast static route. A zero gateway, interface
// index or table falls back to the kernel default.
func AddRoute(s *snl.Session, dst netip.Prefix, gw netip.Addr, oif, table uint32) error {
	return modifyRoute(s, unix.RTM_NEWROUTE, unix.NLM_F_CREATE|unix.NLM_F_EXCL, dst, gw, oif, table)
}

// DelRoute removes a route previously installed with AddRoute.
func DelRoute(s *snl.Session, dst netip.Prefix, gw netip.Addr, oif, table uint32) error {
	return modifyRoute(s, unix.RTM_DELROUTE, 0, dst, gw, oif, table)
}

func modifyRoute(s *snl.Session, typ, flags uint16, dst netip.Prefix, gw netip.Addr, oif, table uint32) error {
	if !dst.IsValid() {
		return fmt.Errorf("rtnl: invalid destination")
	}
	if gw.IsValid() && gw.Is4() != dst.Addr().Is4() {
		return fmt.Errorf("rtnl: gateway %v and destination %v family mismatch", gw, dst)
	}

	w := snl.NewWriter()
	w.BeginMessage(typ, unix.NLM_F_REQUEST|unix.NLM_F_ACK|flags)
	seq := s.NextSeq()
	w.SetSeq(seq)

	rtm := w.ReserveRaw(unix.SizeofRtMsg)
	if dst.Addr().Is4() {
		rtm[0] = unix.AF_INET
	} else {
		rtm[0] = unix.AF_INET6
	}
	rtm[1] = uint8(dst.Bits())      // rtm_dst_len
	rtm[5] = unix.RTPROT_STATIC     // rtm_protocol
	rtm[6] = unix.RT_SCOPE_UNIVERSE // rtm_scope
	rtm[7] = unix.RTN_UNICAST       // rtm_type

	w.AddAttr(unix.RTA_DST, dst.Masked().Addr().AsSlice())
	if table != 0 {
		w.AddAttrUint32(unix.RTA_TABLE, table)
	}
	if gw.IsValid() {
		w.AddAttr(unix.RTA_GATEWAY, gw.AsSlice())
	}
	if oif != 0 {
		w.AddAttrUint32(unix.RTA_OIF, oif)
	}

	m, err := w.Finalize()
	if err != nil {
		return err
	}
	if err := s.Send(m); err != nil {
		return err
	}
	return s.ReadReplyCode(seq)
}
