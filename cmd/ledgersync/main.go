package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/variational-research/variational-go/internal/cli"
	"github.com/variational-research/variational-go/internal/config"
	"github.com/variational-research/variational-go/internal/svc"
)

const (
	schemaTimeout   = 30 * time.Second
	shutdownTimeout = 10 * time.Second // grace period for the in-flight sync
)

func main() {
	configPath := flag.String("f", config.DefaultPath, "path to the main configuration")
	once := flag.Bool("once", false, "run a single sync and exit")
	flag.Parse()

	cfg, err := config.Load(config.LocateMain(*configPath))
	if err != nil {
		log.Fatalf("[main] load config: %v", err)
	}
	if err := cli.SetupLogging(cfg); err != nil {
		log.Fatalf("[main] %v", err)
	}
	cli.LogConfigSummary(cfg)

	sc := svc.NewServiceContext(*cfg)
	defer sc.Close()
	if sc.Syncer == nil {
		log.Fatalf("[main] ledger sync requires Postgres.DSN")
	}

	schemaCtx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	err = sc.EnsureLedger(schemaCtx)
	cancel()
	if err != nil {
		log.Fatalf("[main] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		stats, err := sc.Syncer.Sync(ctx)
		if err != nil {
			log.Fatalf("[main] sync: %v", err)
		}
		logx.Infof("synced %d trades, %d transfers", stats.Trades, stats.Transfers)
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sc.Syncer.Run(ctx, cfg.Ledger.Interval); err != nil {
			logx.Errorf("ledger sync stopped: %v", err)
			stop()
		}
	}()
	logx.Infof("ledger sync started, interval %s. Press Ctrl+C to stop.", cfg.Ledger.Interval)

	<-ctx.Done()
	logx.Info("shutdown signal received, waiting for the current sync")

	select {
	case <-done:
		logx.Info("ledger sync stopped cleanly")
	case <-time.After(shutdownTimeout):
		logx.Info("shutdown timeout exceeded, forcing exit")
	}
}
