package core

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addrs = []string{"proxy.example.com:3025"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := cfg
	bad.ClientName = "  "
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected empty client_name to fail validation")
	}

	bad = cfg
	bad.Addrs = []string{"proxy:3025", " "}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected blank addr entry to fail validation")
	}

	bad = cfg
	bad.Credentials.ChainPolicy = "best_effort"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected unknown chain policy to fail validation")
	}

	bad = cfg
	bad.DialTimeout = -time.Second
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected negative dial timeout to fail validation")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DialTimeout <= 0 {
		t.Fatalf("expected default dial timeout")
	}
	if cfg.Credentials.WatchInterval <= 0 {
		t.Fatalf("expected default watch interval")
	}
	if cfg.Credentials.ChainPolicy != "strict_fail" {
		t.Fatalf("expected strict chain policy default, got %q", cfg.Credentials.ChainPolicy)
	}
}
