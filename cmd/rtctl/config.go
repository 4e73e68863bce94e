package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sys/unix"
)

// Config is rtctl's optional toml config file.
type Config struct {
	Table    uint32   `toml:"table"`
	LogLevel string   `toml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Groups   []string `toml:"groups" validate:"dive,oneof=link ipv4-addr ipv4-route ipv6-addr ipv6-route"`
}

func defaultConfig() Config {
	return Config{
		Table:    unix.RT_TABLE_MAIN,
		LogLevel: "info",
		Groups:   []string{"link", "ipv4-addr", "ipv4-route", "ipv6-addr", "ipv6-route"},
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

var groupNames = map[string]int{
	"link":       unix.RTNLGRP_LINK,
	"ipv4-addr":  unix.RTNLGRP_IPV4_IFADDR,
	"ipv4-route": unix.RTNLGRP_IPV4_ROUTE,
	"ipv6-addr":  unix.RTNLGRP_IPV6_IFADDR,
	"ipv6-route": unix.RTNLGRP_IPV6_ROUTE,
}

func (c Config) groupIDs() []int {
	out := make([]int, 0, len(c.Groups))
	for _, name := range c.Groups {
		out = append(out, groupNames[name])
	}
	return out
}
