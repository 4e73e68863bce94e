package rtnl

import (
	"testing"

	"golang.org/x/sys/unix"
)

func mustEvent(t *testing.T, typ uint16) Event {
	t.Helper()
	ev, ok, err := decodeEvent(linkEvent(t, typ, "eth0", 2, unix.IFF_UP))
	if err != nil || !ok {
		t.Fatalf("decode: ok=%v err=%v", ok, err)
	}
	return ev
}

func TestTablesLinkLifecycle(t *testing.T) {
	tab := NewTables()

	tab.Apply(mustEvent(t, unix.RTM_NEWLINK))
	if links := tab.Links(); len(links) != 1 || links[0].Name != "eth0" {
		t.Fatalf("links %+v", links)
	}

	// a second new for the same index replaces, not duplicates
	tab.Apply(mustEvent(t, unix.RTM_NEWLINK))
	if links := tab.Links(); len(links) != 1 {
		t.Fatalf("links %+v", links)
	}

	tab.Apply(mustEvent(t, unix.RTM_DELLINK))
	if links := tab.Links(); len(links) != 0 {
		t.Fatalf("links %+v", links)
	}
}

func TestTablesAddrAndRoute(t *testing.T) {
	tab := NewTables()

	addr, ok, err := decodeEvent(addrEvent(t, unix.RTM_NEWADDR, 3, [4]byte{192, 168, 0, 1}, 24))
	if err != nil || !ok {
		t.Fatalf("decode addr: %v", err)
	}
	tab.Apply(addr)
	if got := tab.Addrs(); len(got) != 1 || got[0].Interface().String() != "192.168.0.1/24" {
		t.Fatalf("addrs %+v", got)
	}

	route, ok, err := decodeEvent(routeEvent(t, unix.RTM_NEWROUTE, [4]byte{10, 0, 0, 0}, 8, unix.RT_TABLE_MAIN))
	if err != nil || !ok {
		t.Fatalf("decode route: %v", err)
	}
	tab.Apply(route)
	if got := tab.Routes(); len(got) != 1 {
		t.Fatalf("routes %+v", got)
	}

	del, _, err := decodeEvent(routeEvent(t, unix.RTM_DELROUTE, [4]byte{10, 0, 0, 0}, 8, unix.RT_TABLE_MAIN))
	if err != nil {
		t.Fatalf("decode route: %v", err)
	}
	tab.Apply(del)
	if got := tab.Routes(); len(got) != 0 {
		t.Fatalf("routes %+v", got)
	}
}
