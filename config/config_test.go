package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("addr %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Engine.NumSymbols != 1024 {
		t.Fatalf("symbols %d, want 1024", cfg.Engine.NumSymbols)
	}
	if cfg.Engine.MaxPriceTick != 1<<15 {
		t.Fatalf("max tick %d, want %d", cfg.Engine.MaxPriceTick, 1<<15)
	}
	if cfg.Kafka.Enabled || cfg.Journal.Enabled || cfg.Feeder.Enabled {
		t.Fatal("optional collaborators must be off by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("NUM_SYMBOLS", "16")
	t.Setenv("RECLAIM_INTERVAL_MS", "500")

	cfg := Load("")
	if cfg.HTTP.Addr != ":9999" || cfg.LogLevel != "debug" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("kafka config %+v", cfg.Kafka)
	}
	if cfg.Engine.NumSymbols != 16 {
		t.Fatalf("symbols %d, want 16", cfg.Engine.NumSymbols)
	}
	if cfg.Engine.ReclaimInterval != 500*time.Millisecond {
		t.Fatalf("reclaim interval %v, want 500ms", cfg.Engine.ReclaimInterval)
	}
}

func TestLoadFromDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("HTTP_ADDR=:7777\nFEEDER_ENABLED=true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if cfg.HTTP.Addr != ":7777" {
		t.Fatalf("addr %q, want :7777 from file", cfg.HTTP.Addr)
	}
	if !cfg.Feeder.Enabled {
		t.Fatal("feeder flag from file not applied")
	}
}

func TestBadValuesIgnored(t *testing.T) {
	t.Setenv("NUM_SYMBOLS", "not-a-number")
	cfg := Load("")
	if cfg.Engine.NumSymbols != 1024 {
		t.Fatalf("unparseable value must keep the default, got %d", cfg.Engine.NumSymbols)
	}
}
