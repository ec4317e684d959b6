package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eternalApril/kvloop/internal/config"
	"github.com/eternalApril/kvloop/internal/keyspace"
	"github.com/eternalApril/kvloop/internal/logger"
	"github.com/eternalApril/kvloop/internal/server"
	"github.com/eternalApril/kvloop/internal/threadpool"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 1
	}

	port := pflag.Int("port", 0, "TCP port to listen on (overrides config)")
	threads := pflag.Int("threads", 0, "worker pool size (overrides config)")
	pflag.Parse()

	if *port != 0 {
		cfg.Server.Port = fmt.Sprintf("%d", *port)
	}
	if *threads != 0 {
		cfg.Pool.Threads = *threads
	}

	log := logger.New(cfg.Log, cfg.GC.Interval)
	defer log.Sync() //nolint:errcheck

	log.Info("kvloop starting",
		zap.String("port", cfg.Server.Port),
		zap.Int("pool_threads", cfg.Pool.Threads),
	)

	pool := threadpool.New(cfg.Pool.Threads, cfg.Pool.MaxQueue)
	defer pool.Shutdown()

	ks := keyspace.New(pool)
	engine := server.NewEngine(ks, log)
	loop := server.NewLoop(engine, ks, log)
	loop.SetTickInterval(cfg.GC.Interval)
	go loop.Run()
	defer loop.Stop()

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	listener, err := server.Listen(addr, loop, log)
	if err != nil {
		log.Error("bind failed", zap.Error(err))
		return 1
	}
	log.Info("listening", zap.String("address", listener.Addr().String()))

	serveErr := make(chan error, 1)
	go func() { serveErr <- listener.Serve() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		log.Error("listener stopped unexpectedly", zap.Error(err))
		return 1
	}

	_ = listener.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	select {
	case <-serveErr:
		log.Info("all connections closed gracefully")
	case <-shutdownCtx.Done():
		log.Warn("shutdown timed out, forcing exit")
	}

	log.Info("kvloop stopped")
	return 0
}
