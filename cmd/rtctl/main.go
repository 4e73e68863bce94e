// rtctl inspects and edits the kernel routing tables over netlink.
//
// Usage:
//
//	rtctl [-c config.toml] dump-links
//	rtctl [-c config.toml] dump-addrs
//	rtctl [-c config.toml] dump-routes [-f table]
//	rtctl [-c config.toml] new-route -d dst [-g gw] [-i iface] [-f table]
//	rtctl [-c config.toml] delete-route -d dst [-g gw] [-i iface] [-f table]
//	rtctl [-c config.toml] if-index iface
//	rtctl [-c config.toml] monitor
package main

import (
	"flag"
	"fmt"
	"net/netip"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/snlnet/snl"
	"github.com/snlnet/snl/rtnl"
)

func main() {
	cfgPath := flag.String("c", "", "path to config file")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(lvl)
	}

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal().Msg("action not specified")
	}

	if err := run(log, cfg, args[0], args[1:]); err != nil {
		log.Fatal().Err(err).Str("action", args[0]).Msg("failed")
	}
}

func run(log zerolog.Logger, cfg Config, action string, args []string) error {
	switch action {
	case "dump-links":
		return withSession(func(s *snl.Session) error {
			links, err := rtnl.DumpLinks(s)
			if err != nil {
				return err
			}
			for _, l := range links {
				fmt.Printf("%d: %s mtu %d up %v\n", l.Index, l.Name, l.MTU, l.Up())
			}
			return nil
		})
	case "dump-addrs":
		return withSession(func(s *snl.Session) error {
			addrs, err := rtnl.DumpAddrs(s)
			if err != nil {
				return err
			}
			for _, a := range addrs {
				fmt.Printf("%d: %s\n", a.Index, a.Interface())
			}
			return nil
		})
	case "dump-routes":
		fs := flag.NewFlagSet(action, flag.ExitOnError)
		table := fs.Uint("f", uint(cfg.Table), "routing table id")
		fs.Parse(args)
		return withSession(func(s *snl.Session) error {
			routes, err := rtnl.DumpRoutes(s, uint32(*table))
			if err != nil {
				return err
			}
			for _, r := range routes {
				fmt.Printf("%s via %s dev %d table %d\n", r.Prefix(), r.Gateway, r.OutIface, r.Table)
			}
			return nil
		})
	case "new-route", "delete-route":
		fs := flag.NewFlagSet(action, flag.ExitOnError)
		dstArg := fs.String("d", "", "destination prefix (required)")
		gwArg := fs.String("g", "", "gateway address")
		ifArg := fs.String("i", "", "output interface name")
		table := fs.Uint("f", uint(cfg.Table), "routing table id")
		fs.Parse(args)
		if *dstArg == "" {
			return fmt.Errorf("destination not specified")
		}
		dst, err := netip.ParsePrefix(*dstArg)
		if err != nil {
			return fmt.Errorf("destination: %w", err)
		}
		var gw netip.Addr
		if *gwArg != "" {
			if gw, err = netip.ParseAddr(*gwArg); err != nil {
				return fmt.Errorf("gateway: %w", err)
			}
		}
		return withSession(func(s *snl.Session) error {
			var oif uint32
			if *ifArg != "" {
				if oif, err = rtnl.LinkIndexByName(s, *ifArg); err != nil {
					return err
				}
			}
			if action == "new-route" {
				return rtnl.AddRoute(s, dst, gw, oif, uint32(*table))
			}
			return rtnl.DelRoute(s, dst, gw, oif, uint32(*table))
		})
	case "if-index":
		if len(args) != 1 {
			return fmt.Errorf("usage: if-index <link>")
		}
		return withSession(func(s *snl.Session) error {
			idx, err := rtnl.LinkIndexByName(s, args[0])
			if err != nil {
				return err
			}
			fmt.Println(idx)
			return nil
		})
	case "monitor":
		mon, err := rtnl.NewMonitor(log, cfg.groupIDs()...)
		if err != nil {
			return err
		}
		defer mon.Close()
		log.Info().Msg("monitoring...")
		for {
			ev, err := mon.Next()
			if err != nil {
				return err
			}
			logEvent(log, ev)
		}
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func withSession(fn func(*snl.Session) error) error {
	s, err := snl.Open(unix.NETLINK_ROUTE)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func logEvent(log zerolog.Logger, ev rtnl.Event) {
	switch {
	case ev.Link != nil:
		log.Info().Uint16("type", ev.Type).Str("name", ev.Link.Name).
			Uint32("index", ev.Link.Index).Bool("up", ev.Link.Up()).Msg("link")
	case ev.Addr != nil:
		log.Info().Uint16("type", ev.Type).Uint32("index", ev.Addr.Index).
			Stringer("addr", ev.Addr.Interface()).Msg("addr")
	case ev.Route != nil:
		log.Info().Uint16("type", ev.Type).Stringer("dst", ev.Route.Prefix()).
			Stringer("gw", ev.Route.Gateway).Uint32("oif", ev.Route.OutIface).Msg("route")
	}
}
