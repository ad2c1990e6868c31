// Package config loads the server configuration from the environment, with
// an optional .env file for local runs. Priority: environment > .env file >
// defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type HTTP struct {
	Addr string
}

type Kafka struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	Interval time.Duration // broadcaster drain interval
}

type Journal struct {
	Enabled bool
	Dir     string
}

type Engine struct {
	NumSymbols      int
	MaxPriceTick    int64
	ReclaimInterval time.Duration
}

type Feeder struct {
	Enabled  bool
	Workers  int
	Interval time.Duration
	MinQty   int64
	MaxQty   int64
	MinPrice int64
	MaxPrice int64
}

type Config struct {
	LogLevel string
	HTTP     HTTP
	Kafka    Kafka
	Journal  Journal
	Engine   Engine
	Feeder   Feeder
}

func Default() Config {
	return Config{
		LogLevel: "info",
		HTTP:     HTTP{Addr: ":8080"},
		Kafka: Kafka{
			Enabled:  false,
			Brokers:  []string{"localhost:9092"},
			Topic:    "trades",
			Interval: 250 * time.Millisecond,
		},
		Journal: Journal{Enabled: false, Dir: "./data/journal"},
		Engine: Engine{
			NumSymbols:      1024,
			MaxPriceTick:    1 << 15,
			ReclaimInterval: 2 * time.Second,
		},
		Feeder: Feeder{
			Enabled:  false,
			Workers:  3,
			Interval: time.Millisecond,
			MinQty:   10,
			MaxQty:   500,
			MinPrice: 10000,
			MaxPrice: 15000,
		},
	}
}

// Load reads configuration, consulting envPath (or ./.env when empty) before
// the process environment.
func Load(envPath string) Config {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg := Default()

	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")

	setBool(&cfg.Kafka.Enabled, "KAFKA_ENABLED")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	setDuration(&cfg.Kafka.Interval, "KAFKA_DRAIN_INTERVAL_MS")

	setBool(&cfg.Journal.Enabled, "JOURNAL_ENABLED")
	setString(&cfg.Journal.Dir, "JOURNAL_DIR")

	setInt(&cfg.Engine.NumSymbols, "NUM_SYMBOLS")
	setInt64(&cfg.Engine.MaxPriceTick, "MAX_PRICE_TICK")
	setDuration(&cfg.Engine.ReclaimInterval, "RECLAIM_INTERVAL_MS")

	setBool(&cfg.Feeder.Enabled, "FEEDER_ENABLED")
	setInt(&cfg.Feeder.Workers, "FEEDER_WORKERS")
	setDuration(&cfg.Feeder.Interval, "FEEDER_INTERVAL_MS")
	setInt64(&cfg.Feeder.MinQty, "FEEDER_MIN_QTY")
	setInt64(&cfg.Feeder.MaxQty, "FEEDER_MAX_QTY")
	setInt64(&cfg.Feeder.MinPrice, "FEEDER_MIN_PRICE")
	setInt64(&cfg.Feeder.MaxPrice, "FEEDER_MAX_PRICE")

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
}
