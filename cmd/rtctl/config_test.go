package main

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Table != unix.RT_TABLE_MAIN {
		t.Fatalf("unexpected table: %d", cfg.Table)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
	if len(cfg.Groups) != 5 {
		t.Fatalf("unexpected groups: %+v", cfg.Groups)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Table != 254 {
		t.Fatalf("unexpected table: %d", cfg.Table)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
	ids := cfg.groupIDs()
	want := []int{unix.RTNLGRP_LINK, unix.RTNLGRP_IPV4_ROUTE, unix.RTNLGRP_IPV6_ROUTE}
	if len(ids) != len(want) {
		t.Fatalf("unexpected group ids: %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("group %d: got %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestLoadConfigRejectsBadGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte(`groups = ["link", "bogus"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadConfigRejectsBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte(`log_level = "loud"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected validation error")
	}
}
