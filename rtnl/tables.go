package rtnl

import (
	"net/netip"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/snlnet/snl"
)

type addrKey struct {
	index  uint32
	prefix netip.Prefix
}

type routeKey struct {
	table  uint32
	prefix netip.Prefix
}

// Tables is an in-memory mirror of the kernel's link, address and route
// tables, maintained from an initial dump plus monitor events. Safe for
// concurrent use.
type Tables struct {
	mu     sync.RWMutex
	links  map[uint32]snl.Link
	addrs  map[addrKey]snl.Addr
	routes map[routeKey]snl.Route
}

func NewTables() *Tables {
	return &Tables{
		links:  make(map[uint32]snl.Link),
		addrs:  make(map[addrKey]snl.Addr),
		routes: make(map[routeKey]snl.Route),
	}
}

// Fill seeds the tables from full dumps over the given session.
func (t *Tables) Fill(s *snl.Session) error {
	links, err := DumpLinks(s)
	if err != nil {
		return err
	}
	addrs, err := DumpAddrs(s)
	if err != nil {
		return err
	}
	routes, err := DumpRoutes(s, 0)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, l := range links {
		t.links[l.Index] = l
	}
	for _, a := range addrs {
		t.addrs[addrKey{a.Index, a.Interface()}] = a
	}
	for _, r := range routes {
		t.routes[routeKey{r.Table, r.Prefix()}] = r
	}
	return nil
}

// Apply folds one monitor event into the tables.
func (t *Tables) Apply(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Type {
	case unix.RTM_NEWLINK:
		t.links[ev.Link.Index] = *ev.Link
	case unix.RTM_DELLINK:
		delete(t.links, ev.Link.Index)
	case unix.RTM_NEWADDR:
		t.addrs[addrKey{ev.Addr.Index, ev.Addr.Interface()}] = *ev.Addr
	case unix.RTM_DELADDR:
		delete(t.addrs, addrKey{ev.Addr.Index, ev.Addr.Interface()})
	case unix.RTM_NEWROUTE:
		t.routes[routeKey{ev.Route.Table, ev.Route.Prefix()}] = *ev.Route
	case unix.RTM_DELROUTE:
		delete(t.routes, routeKey{ev.Route.Table, ev.Route.Prefix()})
	}
}

// Links returns a snapshot of the link table.
func (t *Tables) Links() []snl.Link {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]snl.Link, 0, len(t.links))
	for _, l := range t.links {
		out = append(out, l)
	}
	return out
}

// Addrs returns a snapshot of the address table.
func (t *Tables) Addrs() []snl.Addr {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]snl.Addr, 0, len(t.addrs))
	for _, a := range t.addrs {
		out = append(out, a)
	}
	return out
}

// Routes returns a snapshot of the route table.
func (t *Tables) Routes() []snl.Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]snl.Route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r)
	}
	return out
}
