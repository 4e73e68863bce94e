package snl

import "golang.org/x/sys/unix"

// Kernel identifiers this library speaks, re-exported verbatim from the
// platform headers so callers need not import golang.org/x/sys/unix for
// the common cases.
const (
	NETLINK_ROUTE = unix.NETLINK_ROUTE

	RTM_NEWLINK  = unix.RTM_NEWLINK
	RTM_DELLINK  = unix.RTM_DELLINK
	RTM_GETLINK  = unix.RTM_GETLINK
	RTM_NEWADDR  = unix.RTM_NEWADDR
	RTM_DELADDR  = unix.RTM_DELADDR
	RTM_GETADDR  = unix.RTM_GETADDR
	RTM_NEWROUTE = unix.RTM_NEWROUTE
	RTM_DELROUTE = unix.RTM_DELROUTE
	RTM_GETROUTE = unix.RTM_GETROUTE
	RTM_NEWNEIGH = unix.RTM_NEWNEIGH
	RTM_DELNEIGH = unix.RTM_DELNEIGH

	NLMSG_NOOP  = unix.NLMSG_NOOP
	NLMSG_ERROR = unix.NLMSG_ERROR
	NLMSG_DONE  = unix.NLMSG_DONE

	NLM_F_REQUEST = unix.NLM_F_REQUEST
	NLM_F_ACK     = unix.NLM_F_ACK
	NLM_F_DUMP    = unix.NLM_F_DUMP
	NLM_F_CREATE  = unix.NLM_F_CREATE
	NLM_F_EXCL    = unix.NLM_F_EXCL
	NLM_F_MULTI   = unix.NLM_F_MULTI

	RTNLGRP_LINK        = unix.RTNLGRP_LINK
	RTNLGRP_IPV4_IFADDR = unix.RTNLGRP_IPV4_IFADDR
	RTNLGRP_IPV4_ROUTE  = unix.RTNLGRP_IPV4_ROUTE
	RTNLGRP_IPV6_IFADDR = unix.RTNLGRP_IPV6_IFADDR
	RTNLGRP_IPV6_ROUTE  = unix.RTNLGRP_IPV6_ROUTE
)
