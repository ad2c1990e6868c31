package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"matchbook/api"
	"matchbook/config"
	"matchbook/engine"
	"matchbook/infra/journal"
	"matchbook/infra/kafka"
	"matchbook/infra/logging"
	"matchbook/infra/metrics"
	"matchbook/infra/tradelog"
	"matchbook/jobs/broadcaster"
	"matchbook/jobs/feeder"
	"matchbook/service"
)

func main() {
	envPath := flag.String("env", "", "path to .env file (optional)")
	flag.Parse()

	cfg := config.Load(*envPath)

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// ---------------- Engine ----------------

	eng, err := engine.New(engine.Config{
		Symbols:      engine.SyntheticUniverse(cfg.Engine.NumSymbols),
		MaxPriceTick: cfg.Engine.MaxPriceTick,
	})
	if err != nil {
		log.Fatal("engine init failed", zap.Error(err))
	}

	// ---------------- Journal ----------------

	var jnl *journal.Journal
	if cfg.Journal.Enabled {
		jnl, err = journal.Open(cfg.Journal.Dir)
		if err != nil {
			log.Fatal("trade journal init failed", zap.Error(err))
		}
		defer jnl.Close()
	}

	// ---------------- Live feed ----------------

	var feed *kafka.Producer
	if cfg.Kafka.Enabled {
		feed = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer feed.Close()
	}

	// ---------------- Service ----------------

	met := metrics.New()
	svc := service.New(log, eng, service.Options{
		Journal: jnl,
		Feed:    feed,
		Trades:  tradelog.New(1 << 16),
		Metrics: met,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go svc.Run(ctx, cfg.Engine.ReclaimInterval)

	// ---------------- Broadcaster ----------------

	if cfg.Kafka.Enabled && cfg.Journal.Enabled {
		bc, err := broadcaster.New(log, jnl, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Interval)
		if err != nil {
			log.Fatal("broadcaster init failed", zap.Error(err))
		}
		defer bc.Close()
		go bc.Run(ctx)
	}

	// ---------------- Feeder ----------------

	if cfg.Feeder.Enabled {
		f := feeder.New(log, svc, feeder.Config{
			Symbols:  eng.Registry().Symbols(),
			Workers:  cfg.Feeder.Workers,
			Interval: cfg.Feeder.Interval,
			MinQty:   cfg.Feeder.MinQty,
			MaxQty:   cfg.Feeder.MaxQty,
			MinPrice: cfg.Feeder.MinPrice,
			MaxPrice: cfg.Feeder.MaxPrice,
		})
		go f.Run(ctx)
	}

	// ---------------- HTTP ----------------

	srv := api.NewServer(log, svc, met, cfg.HTTP.Addr)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("http server failed", zap.Error(err))
		}
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	cancel()
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}

	log.Info("stopped",
		zap.Uint64("orders", eng.LastOrderSeq()),
		zap.Uint64("trades", eng.LastTradeSeq()))
}
