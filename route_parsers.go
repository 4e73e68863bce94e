package snl

import (
	"net/netip"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Link is the decoded view of an RTM_NEWLINK/RTM_DELLINK message.
type Link struct {
	Index uint32
	Type  uint16
	Flags uint32
	MTU   uint32
	Name  string
}

// Up reports whether the interface has IFF_UP set.
func (l Link) Up() bool { return l.Flags&unix.IFF_UP != 0 }

// Addr is the decoded view of an RTM_NEWADDR/RTM_DELADDR message.
type Addr struct {
	Family    uint8
	PrefixLen uint8
	Flags     uint8
	Scope     uint8
	Index     uint32
	Local     netip.Addr
	Address   netip.Addr
	Broadcast netip.Addr
	Label     string
}

// Interface returns the address as an interface prefix, preferring the
// local address over the peer address when both are present.
func (a Addr) Interface() netip.Prefix {
	addr := a.Address
	if a.Local.IsValid() {
		addr = a.Local
	}
	return netip.PrefixFrom(addr, int(a.PrefixLen))
}

// Route is the decoded view of an RTM_NEWROUTE/RTM_DELROUTE message.
type Route struct {
	Family   uint8
	DstLen   uint8
	Protocol uint8
	Scope    uint8
	Type     uint8
	Table    uint32
	Dst      netip.Addr
	Gateway  netip.Addr
	OutIface uint32
	Priority uint32
	MTU      uint32 // RTA_METRICS/RTAX_MTU
}

// Prefix returns the route's destination prefix. A route with no
// RTA_DST attribute is the default route of its family.
func (r Route) Prefix() netip.Prefix {
	dst := r.Dst
	if !dst.IsValid() {
		if r.Family == unix.AF_INET6 {
			dst = netip.IPv6Unspecified()
		} else {
			dst = netip.IPv4Unspecified()
		}
	}
	return netip.PrefixFrom(dst, int(r.DstLen))
}

// The three static parser tables. Wire offsets follow ifinfomsg,
// ifaddrmsg and rtmsg from the platform headers.

var LinkParser = &Table{
	HdrLen: unix.SizeofIfInfomsg,
	Fields: []FieldRule{
		FieldUint16(2, unsafe.Offsetof(Link{}.Type)),
		FieldUint32(4, unsafe.Offsetof(Link{}.Index)),
		FieldUint32(8, unsafe.Offsetof(Link{}.Flags)),
	},
	Attrs: []AttrRule{
		AttrString(unix.IFLA_IFNAME, unsafe.Offsetof(Link{}.Name)),
		AttrUint32(unix.IFLA_MTU, unsafe.Offsetof(Link{}.MTU)),
	},
}

var AddrParser = &Table{
	HdrLen: unix.SizeofIfAddrmsg,
	Fields: []FieldRule{
		FieldUint8(0, unsafe.Offsetof(Addr{}.Family)),
		FieldUint8(1, unsafe.Offsetof(Addr{}.PrefixLen)),
		FieldUint8(2, unsafe.Offsetof(Addr{}.Flags)),
		FieldUint8(3, unsafe.Offsetof(Addr{}.Scope)),
		FieldUint32(4, unsafe.Offsetof(Addr{}.Index)),
	},
	Attrs: []AttrRule{
		AttrIP(unix.IFA_ADDRESS, unsafe.Offsetof(Addr{}.Address)),
		AttrIP(unix.IFA_LOCAL, unsafe.Offsetof(Addr{}.Local)),
		AttrIP(unix.IFA_BROADCAST, unsafe.Offsetof(Addr{}.Broadcast)),
		AttrString(unix.IFA_LABEL, unsafe.Offsetof(Addr{}.Label)),
	},
}

var routeMetricsParser = &Table{
	Attrs: []AttrRule{
		AttrUint32(unix.RTAX_MTU, unsafe.Offsetof(Route{}.MTU)),
	},
}

var RouteParser = &Table{
	HdrLen: unix.SizeofRtMsg,
	Fields: []FieldRule{
		FieldUint8(0, unsafe.Offsetof(Route{}.Family)),
		FieldUint8(1, unsafe.Offsetof(Route{}.DstLen)),
		FieldUint8(5, unsafe.Offsetof(Route{}.Protocol)),
		FieldUint8(6, unsafe.Offsetof(Route{}.Scope)),
		FieldUint8(7, unsafe.Offsetof(Route{}.Type)),
	},
	Attrs: []AttrRule{
		AttrIP(unix.RTA_DST, unsafe.Offsetof(Route{}.Dst)),
		AttrIP(unix.RTA_GATEWAY, unsafe.Offsetof(Route{}.Gateway)),
		AttrUint32(unix.RTA_OIF, unsafe.Offsetof(Route{}.OutIface)),
		AttrUint32(unix.RTA_TABLE, unsafe.Offsetof(Route{}.Table)),
		AttrUint32(unix.RTA_PRIORITY, unsafe.Offsetof(Route{}.Priority)),
		AttrNested(unix.RTA_METRICS, routeMetricsParser),
	},
}

// ParseLink decodes a link message with LinkParser.
func ParseLink(m Message) (Link, error) {
	var l Link
	if err := Parse(LinkParser, m, &l); err != nil {
		return Link{}, err
	}
	return l, nil
}

// ParseAddr decodes an address message with AddrParser.
func ParseAddr(m Message) (Addr, error) {
	var a Addr
	if err := Parse(AddrParser, m, &a); err != nil {
		return Addr{}, err
	}
	return a, nil
}

// ParseRoute decodes a route message with RouteParser.
func ParseRoute(m Message) (Route, error) {
	var r Route
	if err := Parse(RouteParser, m, &r); err != nil {
		return Route{}, err
	}
	return r, nil
}
