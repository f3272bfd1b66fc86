package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.Store.Driver != "memory" {
		t.Fatalf("unexpected store driver %q", cfg.Store.Driver)
	}
	if cfg.Delays.Generate != 3*time.Second || cfg.Delays.Auth != 1500*time.Millisecond {
		t.Fatalf("unexpected delays %+v", cfg.Delays)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout %s", cfg.ShutdownTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TFASHION_HTTP_ADDR", ":9090")
	t.Setenv("TFASHION_STORE_DRIVER", "sqlite")
	t.Setenv("TFASHION_DELAYS_CHECKOUT", "250ms")
	t.Setenv("TFASHION_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.Store.Driver != "sqlite" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Delays.Checkout != 250*time.Millisecond {
		t.Fatalf("unexpected checkout delay %s", cfg.Delays.Checkout)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "store:\n  driver: redis\nredis:\n  addr: cache:6379\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != "redis" || cfg.Redis.Addr != "cache:6379" || cfg.Log.Level != "debug" {
		t.Fatalf("file not applied: %+v", cfg)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("defaults lost: %q", cfg.HTTPAddr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
