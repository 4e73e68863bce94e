package rtnl

import (
	"golang.org/x/sys/unix"

	"github.com/rs/zerolog"

	"github.com/snlnet/snl"
)

// DefaultGroups are the multicast groups covering link, address and
// route changes for both address families.
var DefaultGroups = []int{
	unix.RTNLGRP_LINK,
	unix.RTNLGRP_IPV4_IFADDR,
	unix.RTNLGRP_IPV4_ROUTE,
	unix.RTNLGRP_IPV6_IFADDR,
	unix.RTNLGRP_IPV6_ROUTE,
}

// Event is one decoded routing-table change notification. Exactly one
// of Link, Addr and Route is set, according to Type.
type Event struct {
	Type  uint16
	Link  *snl.Link
	Addr  *snl.Addr
	Route *snl.Route
}

// Monitor owns a netlink session subscribed to routing notification
// groups and decodes incoming messages into events.
type Monitor struct {
	s   *snl.Session
	log zerolog.Logger
}

// NewMonitor opens a NETLINK_ROUTE session and joins the given groups,
// or DefaultGroups when none are given.
func NewMonitor(log zerolog.Logger, groups ...int) (*Monitor, error) {
	s, err := snl.Open(unix.NETLINK_ROUTE)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		groups = DefaultGroups
	}
	for _, g := range groups {
		if err := s.JoinGroup(g); err != nil {
			s.Close()
			return nil, err
		}
	}
	return &Monitor{s: s, log: log}, nil
}

// Close releases the monitor's session.
func (m *Monitor) Close() error { return m.s.Close() }

// Next blocks until the next decodable notification arrives. Messages
// of unhandled types are logged and skipped.
func (m *Monitor) Next() (Event, error) {
	for {
		msg, err := m.s.ReadMessage()
		if err != nil {
			return Event{}, err
		}
		ev, ok, err := decodeEvent(msg)
		if err != nil {
			m.log.Warn().Err(err).Uint16("type", msg.Header.Type).Msg("dropping undecodable notification")
			continue
		}
		if !ok {
			m.log.Debug().Uint16("type", msg.Header.Type).Msg("ignoring notification")
			continue
		}
		return ev, nil
	}
}

func decodeEvent(m snl.Message) (Event, bool, error) {
	switch m.Header.Type {
	case unix.RTM_NEWLINK, unix.RTM_DELLINK:
		l, err := snl.ParseLink(m)
		if err != nil {
			return Event{}, false, err
		}
		return Event{Type: m.Header.Type, Link: &l}, true, nil
	case unix.RTM_NEWADDR, unix.RTM_DELADDR:
		a, err := snl.ParseAddr(m)
		if err != nil {
			return Event{}, false, err
		}
		return Event{Type: m.Header.Type, Addr: &a}, true, nil
	case unix.RTM_NEWROUTE, unix.RTM_DELROUTE:
		r, err := snl.ParseRoute(m)
		if err != nil {
			return Event{}, false, err
		}
		return Event{Type: m.Header.Type, Route: &r}, true, nil
	}
	return Event{}, false, nil
}
